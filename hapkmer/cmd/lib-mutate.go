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

import "math/rand"

// mutateSeq substitutes every uppercase A/C/G/T base with probability prob
// by one of the other three bases, chosen uniformly.
// Other bytes are not changed. It returns the number of substitutions.
func mutateSeq(s []byte, prob float64, r *rand.Rand) (n int) {
	if prob <= 0 {
		return 0
	}
	var others *[3]byte
	for i, b := range s {
		others = substitutions[b]
		if others == nil {
			continue
		}
		if r.Float64() < prob {
			s[i] = others[r.Intn(3)]
			n++
		}
	}
	return n
}

var substitutions = [256]*[3]byte{
	'A': {'C', 'G', 'T'},
	'C': {'A', 'G', 'T'},
	'G': {'A', 'C', 'T'},
	'T': {'A', 'C', 'G'},
}
