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
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
)

var mutateCmd = &cobra.Command{
	Use:   "mutate",
	Short: "Simulate a haplotype by introducing random substitutions",
	Long: `Simulate a haplotype by introducing random substitutions

Every uppercase A, C, G or T base is substituted with a probability of
-p/--prob by one of the other three bases, chosen uniformly.
Other characters, e.g., N or lowercase bases, are kept as they are.
Sequences are output in FASTA format, with the original headers.

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

		if len(args) != 1 {
			checkError(fmt.Errorf("one positional argument needed: <seqs file>"))
		}
		file, err := expandPath(args[0])
		checkError(err)

		outFile := getFlagString(cmd, "out-file")
		prob := getFlagProbability(cmd, "prob")
		seed := getFlagInt64(cmd, "seed")
		lineWidth := getFlagNonNegativeInt(cmd, "line-width")

		r := rand.New(rand.NewSource(seed))

		// ---------------------------------------------------------------

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)

		fastxReader, err := fastx.NewReader(nil, file, "")
		checkError(err)

		var record *fastx.Record
		var n, nSeqs, nBases, nMuts int
		for {
			record, err = fastxReader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				checkError(err)
				break
			}

			n = mutateSeq(record.Seq.Seq, prob, r)
			nSeqs++
			nBases += len(record.Seq.Seq)
			nMuts += n

			if outputLog {
				log.Infof("  %s: %s bp, %s substitutions", record.ID,
					humanize.Comma(int64(len(record.Seq.Seq))), humanize.Comma(int64(n)))
			}

			outfh.Write(_mark_fasta)
			outfh.Write(record.Name)
			outfh.Write(_mark_newline)
			outfh.Write(record.Seq.FormatSeq(lineWidth))
			outfh.Write(_mark_newline)
		}
		fastxReader.Close()
		checkError(closeOutStream(outfh, gw, w))

		if outputLog {
			log.Infof("%s substitutions in %s sequences (%s bp)", humanize.Comma(int64(nMuts)),
				humanize.Comma(int64(nSeqs)), humanize.Comma(int64(nBases)))
		}
	},
}

var _mark_fasta = []byte{'>'}
var _mark_newline = []byte{'\n'}

func init() {
	RootCmd.AddCommand(mutateCmd)

	mutateCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	mutateCmd.Flags().Float64P("prob", "p", 0.001,
		formatFlagUsage(`Substitution probability of every base.`))

	mutateCmd.Flags().Int64P("seed", "s", 1,
		formatFlagUsage(`Rand seed.`))

	mutateCmd.Flags().IntP("line-width", "w", 60,
		formatFlagUsage("Line width of sequence (0 for no wrap)."))

	mutateCmd.SetUsageTemplate(usageTemplate("<seqs file> [-p <prob>] [-o out.fa.gz]"))
}
