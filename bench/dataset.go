package bench

import (
	"bufio"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/safeopen"
	"go.uber.org/zap"

	"github.com/benz9527/treebench/lib/infra"
	"github.com/benz9527/treebench/xlog"
)

// A single line may carry a whole 200K dataset.
const maxDatasetLineBytes = 64 << 20

func isDatasetSep(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

// reduceKey keeps the value inside the int32 range. Go's % truncates, the
// remainder has the sign of v.
func reduceKey(v int64) int {
	return int(v % math.MaxInt32)
}

// ParseDataset reads comma or whitespace separated integers. The tokens not
// parsable as int64 are skipped with a warning. The error is only about
// reading r.
func ParseDataset(r io.Reader, logger xlog.XLogger) ([]int, error) {
	data := make([]int, 0, 1024)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDatasetLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		for _, token := range strings.FieldsFunc(line, isDatasetSep) {
			v, err := strconv.ParseInt(token, 10, 64)
			if err != nil {
				if logger != nil {
					logger.Warn("Could not parse value",
						zap.String("token", token),
						zap.Int("line", lineNo),
					)
				}
				continue
			}
			data = append(data, reduceKey(v))
		}
	}
	if err := scanner.Err(); err != nil {
		return data, infra.WrapErrorStack(err, "[bench] read dataset")
	}
	return data, nil
}

// LoadDataset opens rel beneath root, a rel escaping the root is refused.
// A missing or unreadable file is a warning and an empty dataset, it never
// fails the run.
func LoadDataset(root, rel string, logger xlog.XLogger) []int {
	filename := filepath.Join(root, rel)
	f, err := safeopen.OpenBeneath(root, rel)
	if err != nil {
		logger.Warn("Could not open file", zap.String("file", filename), zap.Error(err))
		return []int{}
	}
	defer func() { _ = f.Close() }()

	data, err := ParseDataset(f, logger)
	if err != nil {
		logger.ErrorStack(err, "Could not read file completely", zap.String("file", filename))
	}
	logger.Info("Loaded "+strconv.Itoa(len(data))+" items from "+filename,
		zap.String("file", filename),
		zap.Int("items", len(data)),
	)
	return data
}
