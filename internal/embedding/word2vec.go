package embedding

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadFile reads a word2vec model; ".bin" files use the binary layout,
// everything else the text layout.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".bin") {
		return LoadBinary(f)
	}
	return LoadText(f)
}

// LoadText reads "word v1 v2 ... vD" lines with an optional "count dim"
// header. Rows with a wrong width or unparseable numbers are skipped.
func LoadText(r io.Reader) (*Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	dim := 0
	vectors := make(map[string][]float64)
	first := true
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if first {
			first = false
			if len(fields) == 2 {
				if _, err := strconv.Atoi(fields[0]); err == nil {
					if d, err := strconv.Atoi(fields[1]); err == nil {
						dim = d
						continue
					}
				}
			}
		}
		if len(fields) < 2 {
			continue
		}
		if dim == 0 {
			dim = len(fields) - 1
		}
		if len(fields)-1 != dim {
			continue
		}
		vec, ok := parseFloats(fields[1:])
		if !ok {
			continue
		}
		vectors[fields[0]] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word2vec text: %w", err)
	}
	return NewModel(dim, vectors)
}

func parseFloats(ss []string) ([]float64, bool) {
	out := make([]float64, len(ss))
	for i, s := range ss {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// LoadBinary reads the original word2vec binary layout: a "count dim\n"
// header, then per word the word bytes, a space and dim little-endian float32.
func LoadBinary(r io.Reader) (*Model, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read word2vec header: %w", err)
	}
	var count, dim int
	if _, err := fmt.Sscanf(strings.TrimSpace(header), "%d %d", &count, &dim); err != nil {
		return nil, fmt.Errorf("parse word2vec header %q: %w", header, err)
	}
	if dim <= 0 {
		return nil, ErrEmptyModel
	}

	vectors := make(map[string][]float64, count)
	raw := make([]float32, dim)
	for i := 0; i < count; i++ {
		word, err := br.ReadString(' ')
		if err != nil {
			return nil, fmt.Errorf("read word %d: %w", i, err)
		}
		word = strings.TrimSpace(word)
		if err := binary.Read(br, binary.LittleEndian, raw); err != nil {
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		vec := make([]float64, dim)
		for j, f := range raw {
			vec[j] = float64(f)
		}
		if word != "" {
			vectors[word] = vec
		}
	}
	return NewModel(dim, vectors)
}
