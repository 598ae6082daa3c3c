package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf16"
)

var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

type plistNode struct {
	value    any
	children []int
}

// BinaryPlist encodes a tree of map[string]any, []any, string, int, int64,
// float64, bool, time.Time and []byte values as a bplist00 document.
// Objects are not deduplicated and dictionary keys are written sorted.
func BinaryPlist(v any) ([]byte, error) {
	var nodes []plistNode
	var flatten func(v any) (int, error)
	flatten = func(v any) (int, error) {
		idx := len(nodes)
		nodes = append(nodes, plistNode{value: v})
		var children []int
		switch val := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var values []int
			for _, k := range keys {
				ki, err := flatten(k)
				if err != nil {
					return 0, err
				}
				vi, err := flatten(val[k])
				if err != nil {
					return 0, err
				}
				children = append(children, ki)
				values = append(values, vi)
			}
			children = append(children, values...)
		case []any:
			for _, item := range val {
				ci, err := flatten(item)
				if err != nil {
					return 0, err
				}
				children = append(children, ci)
			}
		case string, int, int64, float64, bool, time.Time, []byte:
		default:
			return 0, fmt.Errorf("unsupported plist value %T", v)
		}
		nodes[idx].children = children
		return idx, nil
	}
	if _, err := flatten(v); err != nil {
		return nil, err
	}

	refSize := 1
	if len(nodes) > math.MaxUint8 {
		refSize = 2
	}

	var out bytes.Buffer
	out.WriteString("bplist00")
	offsets := make([]int, len(nodes))
	for i, n := range nodes {
		offsets[i] = out.Len()
		writeObject(&out, n, refSize)
	}

	tableOffset := out.Len()
	offsetSize := uintSize(uint64(tableOffset))
	for _, off := range offsets {
		writeUint(&out, uint64(off), offsetSize)
	}

	out.Write(make([]byte, 6))
	out.WriteByte(byte(offsetSize))
	out.WriteByte(byte(refSize))
	writeUint(&out, uint64(len(nodes)), 8)
	writeUint(&out, 0, 8)
	writeUint(&out, uint64(tableOffset), 8)
	return out.Bytes(), nil
}

// MustBinaryPlist is BinaryPlist for fixtures known to be encodable
func MustBinaryPlist(v any) []byte {
	data, err := BinaryPlist(v)
	if err != nil {
		panic(err)
	}
	return data
}

func writeObject(out *bytes.Buffer, n plistNode, refSize int) {
	switch val := n.value.(type) {
	case map[string]any:
		writeMarker(out, 0xd, len(val))
		for _, c := range n.children {
			writeUint(out, uint64(c), refSize)
		}
	case []any:
		writeMarker(out, 0xa, len(val))
		for _, c := range n.children {
			writeUint(out, uint64(c), refSize)
		}
	case string:
		if isASCII(val) {
			writeMarker(out, 0x5, len(val))
			out.WriteString(val)
			return
		}
		units := utf16.Encode([]rune(val))
		writeMarker(out, 0x6, len(units))
		for _, u := range units {
			writeUint(out, uint64(u), 2)
		}
	case int:
		writeInt(out, int64(val))
	case int64:
		writeInt(out, val)
	case float64:
		out.WriteByte(0x23)
		writeUint(out, math.Float64bits(val), 8)
	case bool:
		if val {
			out.WriteByte(0x09)
		} else {
			out.WriteByte(0x08)
		}
	case time.Time:
		out.WriteByte(0x33)
		secs := val.Sub(appleEpoch).Seconds()
		writeUint(out, math.Float64bits(secs), 8)
	case []byte:
		writeMarker(out, 0x4, len(val))
		out.Write(val)
	}
}

func writeMarker(out *bytes.Buffer, kind byte, count int) {
	if count < 0xf {
		out.WriteByte(kind<<4 | byte(count))
		return
	}
	out.WriteByte(kind<<4 | 0xf)
	writeInt(out, int64(count))
}

func writeInt(out *bytes.Buffer, v int64) {
	if v < 0 {
		out.WriteByte(0x13)
		writeUint(out, uint64(v), 8)
		return
	}
	switch size := uintSize(uint64(v)); size {
	case 1:
		out.WriteByte(0x10)
	case 2:
		out.WriteByte(0x11)
	case 4:
		out.WriteByte(0x12)
	default:
		out.WriteByte(0x13)
	}
	writeUint(out, uint64(v), uintSize(uint64(v)))
}

func uintSize(v uint64) int {
	switch {
	case v <= math.MaxUint8:
		return 1
	case v <= math.MaxUint16:
		return 2
	case v <= math.MaxUint32:
		return 4
	default:
		return 8
	}
}

func writeUint(out *bytes.Buffer, v uint64, size int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	out.Write(buf[8-size:])
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
