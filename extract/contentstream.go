// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disablePdfcpuConfigDir sync.Once

// ContentStreamParser extracts page text by decoding the text-showing
// operators of each page content stream, using github.com/pdfcpu/pdfcpu.
type ContentStreamParser struct{}

func (ContentStreamParser) Name() string { return "contentstream" }

func (ContentStreamParser) ParsePages(ctx context.Context, path string) ([]string, error) {
	disablePdfcpuConfigDir.Do(api.DisableConfigDir)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := make([]string, 0, pdfCtx.PageCount)
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, pageContentText(pdfCtx, pageNr))
	}
	return pages, nil
}

func pageContentText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return textFromContentStream(data)
}

// textFromContentStream scans content stream tokens, collecting string
// operands and emitting them when a text-showing operator is reached.
// Positioning operators and the end of a text object produce line breaks.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	var operands []string

	newline := func() {
		s := sb.String()
		if len(s) > 0 && !strings.HasSuffix(s, "\n") {
			sb.WriteByte('\n')
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == '(':
			s, n := readLiteralString(data[i:])
			operands = append(operands, s)
			i += n
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '<':
			s, n := readHexString(data[i:])
			operands = append(operands, s)
			i += n
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case isContentDelimiter(c) || isContentSpace(c):
			i++
		default:
			start := i
			for i < len(data) && !isContentDelimiter(data[i]) && !isContentSpace(data[i]) {
				i++
			}
			token := string(data[start:i])
			if !isOperator(token) {
				continue
			}
			switch token {
			case "Tj", "TJ":
				sb.WriteString(strings.Join(operands, ""))
			case "'", `"`:
				newline()
				sb.WriteString(strings.Join(operands, ""))
			case "Td", "TD", "Tm", "T*", "ET":
				newline()
			}
			operands = operands[:0]
		}
	}
	return sb.String()
}

func isContentSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isContentDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isOperator(token string) bool {
	if token == "" {
		return false
	}
	c := token[0]
	return c == '\'' || c == '"' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// readLiteralString decodes a parenthesized string starting at data[0],
// honouring nesting and escape sequences. It returns the decoded text and
// the number of bytes consumed.
func readLiteralString(data []byte) (string, int) {
	var sb strings.Builder
	depth := 0
	i := 0
	for ; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '\\' && i+1 < len(data):
			i++
			switch e := data[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(data[i]-'0')
					}
					sb.WriteRune(rune(byte(val)))
				} else {
					sb.WriteByte(e)
				}
			}
		case c == '(':
			depth++
			if depth > 1 {
				sb.WriteByte(c)
			}
		case c == ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		default:
			if c < 0x80 {
				sb.WriteByte(c)
			} else {
				sb.WriteRune(rune(c))
			}
		}
	}
	return sb.String(), i
}

func readHexString(data []byte) (string, int) {
	end := 1
	for end < len(data) && data[end] != '>' {
		end++
	}
	var digits []byte
	for _, c := range data[1:min(end, len(data))] {
		if !isContentSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw, err := hex.DecodeString(string(digits))
	consumed := min(end+1, len(data))
	if err != nil {
		return "", consumed
	}
	var sb strings.Builder
	for _, b := range raw {
		if b >= 0x20 || b == '\n' || b == '\t' {
			sb.WriteRune(rune(b))
		}
	}
	return sb.String(), consumed
}
