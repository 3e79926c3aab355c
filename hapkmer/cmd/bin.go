// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/hapkmer/hapkmer/haplotype"
	"github.com/spf13/cobra"
)

var binCmd = &cobra.Command{
	Use:   "bin",
	Short: "Count windows of reads matching haplotype-specific k-mers",
	Long: `Count windows of reads matching haplotype-specific k-mers

Input:
  1. Reads in a plain or compressed FASTA/Q file ("-" for stdin).
  2. A k-mer table created by "hapkmer discover".

Output (tab-delimited, no header, in the order of input reads):
  read id, windows matching haplotype 1 k-mers, windows matching haplotype 2 k-mers.

Attentions:
  1. Only the positive strand of reads is scanned, and windows are compared
     to k-mers in the table as they are (case-sensitive).
  2. A k-mer is treated as haplotype 1 (or 2) specific if its count of
     haplotype 1 (or 2) is > 0.
  3. Reads shorter than the k-mer size are reported with zero counts.
  4. The -k/--kmer-bytes should be the same as the one used in "hapkmer discover",
     it is checked with the table metadata file if it exists.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}

		outputLog := opt.Verbose || opt.Log2File

		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		// ---------------------------------------------------------------

		if len(args) != 2 {
			checkError(fmt.Errorf("two positional arguments needed: <reads> <k-mer table>"))
		}

		readsFile, err := expandPath(args[0])
		checkError(err)
		tableFile, err := expandPath(args[1])
		checkError(err)

		outFile := getFlagString(cmd, "out-file")
		plotFile := getFlagString(cmd, "plot")
		plotBins := getFlagPositiveInt(cmd, "plot-bins")

		w := opt.K << 2

		// ---------------------------------------------------------------
		// k-mer table

		info, err := checkTableInfo(tableFile, opt)
		checkError(err)
		if info != nil && info.ExcludeLastWindow != opt.ExcludeLastWindow {
			log.Warningf("the k-mer table was created with --exclude-last-window=%v, but %v is given",
				info.ExcludeLastWindow, opt.ExcludeLastWindow)
		}

		if outputLog {
			log.Infof("hapkmer v%s", VERSION)
			log.Info()
			log.Infof("reading k-mer table: %s", tableFile)
		}

		table, err := haplotype.ReadTable(tableFile, w)
		checkError(err)

		if outputLog {
			log.Infof("  k-mers of haplotype 1: %s", humanize.Comma(int64(len(table.Hap1))))
			log.Infof("  k-mers of haplotype 2: %s", humanize.Comma(int64(len(table.Hap2))))
			log.Info()
			log.Infof("binning reads: %s", readsFile)
		}

		// ---------------------------------------------------------------
		// output file handler

		outfh, gw, wfh, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)

		// ---------------------------------------------------------------
		// binning

		binner := haplotype.NewBinner(table, w, opt.ExcludeLastWindow)

		var fractions hap1Fractions
		timeStart1 := time.Now()
		stats, err := binner.BinFile(readsFile, outfh, func(r *haplotype.ReadResult) {
			fractions.add(r)
		})
		checkError(err)
		checkError(closeOutStream(outfh, gw, wfh))

		if outputLog {
			speed := float64(stats.Reads) / time.Since(timeStart1).Minutes()
			log.Infof("processed reads: %s, speed: %.3f reads per minute", humanize.Comma(int64(stats.Reads)), speed)
			if stats.Reads > 0 {
				pct := func(n int) float64 { return float64(n) / float64(stats.Reads) * 100 }
				log.Infof("  haplotype 1 only: %.4f%% (%d/%d)", pct(stats.Hap1Only), stats.Hap1Only, stats.Reads)
				log.Infof("  haplotype 2 only: %.4f%% (%d/%d)", pct(stats.Hap2Only), stats.Hap2Only, stats.Reads)
				log.Infof("  both haplotypes:  %.4f%% (%d/%d)", pct(stats.Both), stats.Both, stats.Reads)
				log.Infof("  no matches:       %.4f%% (%d/%d)", pct(stats.None), stats.None, stats.Reads)
			}
			mean, stdev := fractions.meanStdev()
			log.Infof("haplotype-1 fraction of matched windows: mean %.4f, stdev %.4f", mean, stdev)
			if !isStdin(outFile) {
				log.Infof("binning results saved to: %s", outFile)
			}
		}

		if plotFile != "" {
			checkError(fractions.plotHist(plotFile, plotBins))
			if outputLog {
				log.Infof("histogram saved to: %s", plotFile)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(binCmd)

	binCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	binCmd.Flags().StringP("plot", "p", "",
		formatFlagUsage(`Plot the histogram of haplotype-1 fractions of matched windows of reads, e.g., hist.png.`))

	binCmd.Flags().IntP("plot-bins", "", 50,
		formatFlagUsage(`Number of bins of the histogram.`))

	binCmd.SetUsageTemplate(usageTemplate("<reads file> <k-mer table> [-o out.tsv.gz]"))
}
