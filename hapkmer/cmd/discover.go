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
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/hapkmer/hapkmer/haplotype"
	"github.com/shenwei356/hapkmer/hapkmer/kmer"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find k-mers observed in only one of two haplotypes",
	Long: `Find k-mers observed in only one of two haplotypes

Input:
  Two positional arguments for haplotype 1 and haplotype 2, each is
  a plain or compressed FASTA/Q file, or a directory containing sequence
  files (matched by -r/--file-regexp), with multiple-level sub-directories allowed.

Output (tab-delimited, no header):
  kmer, count in haplotype 1, count in haplotype 2.
  Exactly one of the two counts is zero in every row.
  Metadata of the table is saved to <out-file basename>.info.toml.

Attentions:
  1. K-mers with bases other than A/C/G/T (case-insensitive) are skipped.
  2. By default, only k-mers on the positive strand are counted.
     Use -R/--revcom to also count k-mers on the negative strand.
  3. All k-mers are kept in memory, 4*K bp k-mers are packed into K bytes.

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
			checkError(fmt.Errorf("two positional arguments needed: <hap1> <hap2>"))
		}

		outFile := getFlagString(cmd, "out-file")
		revcom := getFlagBool(cmd, "revcom")
		sorted := getFlagBool(cmd, "sort")
		seqLog := getFlagBool(cmd, "seq-log")

		reFileStr := getFlagString(cmd, "file-regexp")
		reFile, err := regexp.Compile(reFileStr)
		if err != nil {
			checkError(fmt.Errorf("failed to parse regular expression for matching sequence files: %s", reFileStr))
		}

		var hapFiles [2][]string
		for i, arg := range args {
			hapFiles[i], err = inputFiles(arg, reFile, opt.NumCPUs)
			checkError(err)
		}

		codec, err := kmer.NewCodec(opt.K)
		checkError(err)

		if outputLog {
			log.Infof("hapkmer v%s", VERSION)
			log.Info()
			log.Infof("k-mer size: %d bp (%d bytes packed)", codec.WindowSize(), codec.K())
			log.Infof("counting k-mers on both strands: %v", revcom)
			log.Infof("input files: %d for haplotype 1, %d for haplotype 2", len(hapFiles[0]), len(hapFiles[1]))
			log.Info()
		}

		// ---------------------------------------------------------------
		// output file handler, created before counting to fail early

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)

		// ---------------------------------------------------------------
		// count

		counter := haplotype.NewCounter(codec, &haplotype.CounterOptions{
			RevCom:            revcom,
			ExcludeLastWindow: opt.ExcludeLastWindow,
			MapInitSize:       mapInitSize,
		})

		nFiles := int64(len(hapFiles[0]) + len(hapFiles[1]))

		// process bar
		var pbs *mpb.Progress
		var bar *mpb.Bar
		showBar := opt.Verbose && !seqLog
		if showBar {
			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(nFiles,
				mpb.PrependDecorators(
					decor.Name("processed files: ", decor.WC{W: len("processed files: "), C: decor.DindentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
					decor.EwmaETA(decor.ET_STYLE_GO, 10),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)
		}

		var onSeq func(id []byte, length int, stats haplotype.SeqStats)
		if seqLog && outputLog {
			onSeq = func(id []byte, length int, stats haplotype.SeqStats) {
				log.Infof("  processing %s: %s bp, %s k-mers counted, %s skipped",
					id, humanize.Comma(int64(length)),
					humanize.Comma(int64(stats.Windows)), humanize.Comma(int64(stats.Skipped)))
			}
		}

		var fileStats [2]haplotype.FileStats
		var fstats haplotype.FileStats
		var t0 time.Time
		for i, hap := range []haplotype.Haplotype{haplotype.Hap1, haplotype.Hap2} {
			for _, file := range hapFiles[i] {
				t0 = time.Now()
				if seqLog && outputLog {
					log.Infof("counting k-mers of %s: %s", hap, file)
				}

				fstats, err = counter.AddFile(hap, file, onSeq)
				checkError(err)

				fileStats[i].Seqs += fstats.Seqs
				fileStats[i].Bases += fstats.Bases
				fileStats[i].Windows += fstats.Windows
				fileStats[i].Skipped += fstats.Skipped

				if showBar {
					bar.EwmaIncrBy(1, time.Since(t0))
				}
			}
		}

		if showBar {
			pbs.Wait()
		}

		if outputLog {
			for i, s := range fileStats {
				log.Infof("haplotype %d: %s sequences, %s bp, %s k-mers counted, %s windows skipped",
					i+1, humanize.Comma(int64(s.Seqs)), humanize.Comma(int64(s.Bases)),
					humanize.Comma(int64(s.Windows)), humanize.Comma(int64(s.Skipped)))
			}
			log.Infof("distinct k-mers: %s", humanize.Comma(int64(counter.Len())))
			log.Info()
			if sorted {
				log.Infof("sorting and saving haplotype-specific k-mers...")
			} else {
				log.Infof("saving haplotype-specific k-mers...")
			}
		}

		// ---------------------------------------------------------------
		// output

		summary, err := counter.WriteTable(outfh, sorted)
		checkError(err)
		checkError(closeOutStream(outfh, gw, w))

		if outputLog {
			log.Infof("  k-mers only in haplotype 1: %s", humanize.Comma(int64(summary.Hap1)))
			log.Infof("  k-mers only in haplotype 2: %s", humanize.Comma(int64(summary.Hap2)))
			log.Infof("  shared k-mers (discarded): %s", humanize.Comma(int64(summary.Shared)))
			if !isStdin(outFile) {
				log.Infof("haplotype-specific k-mers saved to: %s", outFile)
			}
		}

		if isStdin(outFile) {
			return
		}

		fileInfo := tableInfoFile(outFile)
		checkError(writeTableInfo(fileInfo, &TableInfo{
			MainVersion: MainVersion,

			K:                 codec.K(),
			KmerSize:          codec.WindowSize(),
			RevCom:            revcom,
			ExcludeLastWindow: opt.ExcludeLastWindow,

			Hap1Files: hapFiles[0],
			Hap2Files: hapFiles[1],

			Hap1Kmers:   summary.Hap1,
			Hap2Kmers:   summary.Hap2,
			SharedKmers: summary.Shared,
		}))
		if outputLog {
			log.Infof("table metadata saved to: %s", fileInfo)
		}
	},
}

func init() {
	RootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	discoverCmd.Flags().BoolP("revcom", "R", false,
		formatFlagUsage(`Also count k-mers on the negative strand.`))

	discoverCmd.Flags().BoolP("sort", "s", false,
		formatFlagUsage(`Sort k-mers in the output.`))

	discoverCmd.Flags().StringP("file-regexp", "r", `(?i)\.(f[aq](st[aq])?|fna)(\.gz|\.xz|\.zst|\.bz2)?$`,
		formatFlagUsage(`Regular expression for matching sequence files in directories, case ignored.`))

	discoverCmd.Flags().BoolP("seq-log", "", false,
		formatFlagUsage(`Log every processed sequence, instead of showing a progress bar.`))

	discoverCmd.SetUsageTemplate(usageTemplate("<hap1 file|dir> <hap2 file|dir> [-o out.tsv.gz]"))
}
