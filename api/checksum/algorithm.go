package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
	"hash/crc32"

	"github.com/minio/crc64nvme"
)

// Algorithm identifies one of the supported integrity checksum algorithms.
type Algorithm int

const (
	// AlgorithmNone is the zero value, no checksum requested.
	AlgorithmNone Algorithm = iota
	AlgorithmCRC32
	AlgorithmCRC32C
	AlgorithmCRC64NVMe
	AlgorithmSHA1
	AlgorithmSHA256
	AlgorithmMD5
)

// Canonical checksum header names. Names are matched case-insensitively on
// the wire but always emitted lowercase.
const (
	HeaderCRC32     = "x-amz-checksum-crc32"
	HeaderCRC32C    = "x-amz-checksum-crc32c"
	HeaderCRC64NVMe = "x-amz-checksum-crc64nvme"
	HeaderSHA1      = "x-amz-checksum-sha1"
	HeaderSHA256    = "x-amz-checksum-sha256"

	// HeaderMD5 is preserved for compatibility purposes only. It is never
	// a response verification candidate.
	HeaderMD5 = "content-md5"
)

// PriorityOrder lists response verification candidates, cheapest to compute
// first. A server may send back several checksum headers, scanning in this
// order lets the verifier stop at the cheapest one actually present.
//
// MD5 and CRC64NVMe never participate: MD5 is legacy emission-only,
// CRC64NVMe is verified in-band by the trailing chunk itself.
var PriorityOrder = [4]Algorithm{AlgorithmCRC32C, AlgorithmCRC32, AlgorithmSHA1, AlgorithmSHA256}

func (a Algorithm) String() string {
	switch a {
	case AlgorithmCRC32:
		return "CRC32"
	case AlgorithmCRC32C:
		return "CRC32C"
	case AlgorithmCRC64NVMe:
		return "CRC64NVME"
	case AlgorithmSHA1:
		return "SHA1"
	case AlgorithmSHA256:
		return "SHA256"
	case AlgorithmMD5:
		return "MD5"
	}
	return ""
}

// HeaderName returns the canonical wire header carrying values of this
// algorithm.
func (a Algorithm) HeaderName() string {
	switch a {
	case AlgorithmCRC32:
		return HeaderCRC32
	case AlgorithmCRC32C:
		return HeaderCRC32C
	case AlgorithmCRC64NVMe:
		return HeaderCRC64NVMe
	case AlgorithmSHA1:
		return HeaderSHA1
	case AlgorithmSHA256:
		return HeaderSHA256
	case AlgorithmMD5:
		return HeaderMD5
	}
	return ""
}

// RawSize returns the fixed byte length of the raw digest. It is a pure
// function of the algorithm and needs no bytes to have been processed.
func (a Algorithm) RawSize() int {
	switch a {
	case AlgorithmCRC32, AlgorithmCRC32C:
		return crc32.Size
	case AlgorithmCRC64NVMe:
		return crc64nvme.Size
	case AlgorithmSHA1:
		return sha1.Size
	case AlgorithmSHA256:
		return sha256.Size
	case AlgorithmMD5:
		return md5.Size
	}
	return 0
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case AlgorithmCRC32:
		return crc32.NewIEEE()
	case AlgorithmCRC32C:
		return crc32.New(crc32.MakeTable(crc32.Castagnoli))
	case AlgorithmCRC64NVMe:
		return crc64nvme.New()
	case AlgorithmSHA1:
		return sha1.New()
	case AlgorithmSHA256:
		return sha256.New()
	case AlgorithmMD5:
		return md5.New()
	}
	return nil
}

// Parse maps a canonical algorithm name to its Algorithm. Matching is
// case-sensitive, unrecognized names are rejected with UnknownAlgorithmError
// and never coerced to a default.
func Parse(name string) (Algorithm, error) {
	switch name {
	case "CRC32":
		return AlgorithmCRC32, nil
	case "CRC32C":
		return AlgorithmCRC32C, nil
	case "CRC64NVME":
		return AlgorithmCRC64NVMe, nil
	case "SHA1":
		return AlgorithmSHA1, nil
	case "SHA256":
		return AlgorithmSHA256, nil
	case "MD5":
		return AlgorithmMD5, nil
	default:
		return AlgorithmNone, UnknownAlgorithmError{Name: name}
	}
}

// ParseHeader maps a checksum header name to its Algorithm. An empty name
// means no checksum was declared and resolves to AlgorithmNone.
func ParseHeader(name string) (Algorithm, error) {
	switch name {
	case HeaderCRC32:
		return AlgorithmCRC32, nil
	case HeaderCRC32C:
		return AlgorithmCRC32C, nil
	case HeaderCRC64NVMe:
		return AlgorithmCRC64NVMe, nil
	case HeaderSHA1:
		return AlgorithmSHA1, nil
	case HeaderSHA256:
		return AlgorithmSHA256, nil
	case HeaderMD5:
		return AlgorithmMD5, nil
	case "":
		return AlgorithmNone, nil
	default:
		return AlgorithmNone, UnknownAlgorithmError{Name: name}
	}
}
