package id

import (
	crand "crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	"github.com/benz9527/treebench/lib/infra"
)

const runIDTsLayout = "20060102T150405"

var nanoIDAlphabet = [64]byte{
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H',
	'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P',
	'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X',
	'Y', 'Z', 'a', 'b', 'c', 'd', 'e', 'f',
	'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n',
	'o', 'p', 'q', 'r', 's', 't', 'u', 'v',
	'w', 'x', 'y', 'z', '0', '1', '2', '3',
	'4', '5', '6', '7', '8', '9', '-', '_',
}

func rngUint32() uint32 {
	randUint32 := [4]byte{}
	if _, err := crand.Read(randUint32[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint32(randUint32[:])
}

func init() {
	// Half shuffle, the suffix alphabet differs per process.
	size := uint32(len(nanoIDAlphabet))
	for i := uint32(0); i < size>>1; i++ {
		j := rngUint32() % size
		nanoIDAlphabet[i], nanoIDAlphabet[j] = nanoIDAlphabet[j], nanoIDAlphabet[i]
	}
}

// NanoIDSuffix returns a random string generator of length in [2, 255].
// The random bytes are pre-allocated and refilled when run out of.
func NanoIDSuffix(length int) (func() string, error) {
	if length < 2 || length > 255 {
		return nil, infra.NewErrorStackf("invalid nano-id length %d", length)
	}

	preAllocSize := length * 64
	bytes := make([]byte, preAllocSize)
	if _, err := crand.Read(bytes); err != nil {
		return nil, infra.WrapErrorStack(err, "[nano-id] pre-allocate bytes failed")
	}
	nanoID := make([]byte, length)
	offset := 0
	mask := byte(len(nanoIDAlphabet) - 1)

	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()

		if offset == preAllocSize {
			if _, err := crand.Read(bytes); /* impossible */ err != nil {
				panic(infra.WrapErrorStack(err, "[nano-id] pre-allocate bytes failed (run out of data)"))
			}
			offset = 0
		}
		for i := 0; i < length; i++ {
			nanoID[i] = nanoIDAlphabet[bytes[i+offset]&mask]
		}
		offset += length
		return string(nanoID)
	}, nil
}

// NewRunIDGen formats the IDs as "<UTC start time>-<nano id>", for example
// 20261019T101530-Xk3_aQ9z. A nil now uses time.Now.
func NewRunIDGen(suffixLen int, now func() time.Time) (RunIDGen, error) {
	suffix, err := NanoIDSuffix(suffixLen)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return func() string {
		return now().UTC().Format(runIDTsLayout) + "-" + suffix()
	}, nil
}
