package bplist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"golang.org/x/text/encoding/unicode"
)

// maxVisits caps object visits so shared references cannot blow up the tree
const maxVisits = 1 << 20

// trailer is the fixed 32 byte footer of a binary property list
type trailer struct {
	offsetIntSize     uint8
	objectRefSize     uint8
	numObjects        uint64
	topObject         uint64
	offsetTableOffset uint64
}

// document holds the decoding state of one binary property list
type document struct {
	ctx      context.Context
	io       *kaitai.Stream
	size     uint64
	trailer  trailer
	offsets  []uint64
	maxDepth int
	active   map[uint64]bool
	visits   int
}

func newDocument(ctx context.Context, data []byte, maxDepth int) (*document, error) {
	doc := &document{
		ctx:      ctx,
		io:       kaitai.NewStream(bytes.NewReader(data)),
		size:     uint64(len(data)),
		maxDepth: maxDepth,
		active:   make(map[uint64]bool),
	}
	if err := doc.readTrailer(); err != nil {
		return nil, err
	}
	if err := doc.readOffsetTable(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *document) corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

func (d *document) seek(offset uint64) error {
	if _, err := d.io.Seek(int64(offset), io.SeekStart); err != nil {
		return d.corrupt("seek to %d: %v", offset, err)
	}
	return nil
}

func (d *document) remaining() uint64 {
	pos, err := d.io.Pos()
	if err != nil || uint64(pos) > d.size {
		return 0
	}
	return d.size - uint64(pos)
}

func (d *document) readTrailer() error {
	if err := d.seek(d.size - trailerSize); err != nil {
		return err
	}
	// 5 unused bytes and the sort version
	if _, err := d.io.ReadBytes(6); err != nil {
		return d.corrupt("trailer: %v", err)
	}
	var t trailer
	var err error
	if t.offsetIntSize, err = d.io.ReadU1(); err != nil {
		return d.corrupt("trailer: %v", err)
	}
	if t.objectRefSize, err = d.io.ReadU1(); err != nil {
		return d.corrupt("trailer: %v", err)
	}
	if t.numObjects, err = d.io.ReadU8be(); err != nil {
		return d.corrupt("trailer: %v", err)
	}
	if t.topObject, err = d.io.ReadU8be(); err != nil {
		return d.corrupt("trailer: %v", err)
	}
	if t.offsetTableOffset, err = d.io.ReadU8be(); err != nil {
		return d.corrupt("trailer: %v", err)
	}

	switch {
	case t.offsetIntSize < 1 || t.offsetIntSize > 8:
		return d.corrupt("offset size %d", t.offsetIntSize)
	case t.objectRefSize < 1 || t.objectRefSize > 8:
		return d.corrupt("object reference size %d", t.objectRefSize)
	case t.numObjects == 0:
		return d.corrupt("no objects")
	case t.topObject >= t.numObjects:
		return d.corrupt("top object %d out of range", t.topObject)
	case t.offsetTableOffset < headerSize || t.offsetTableOffset > d.size-trailerSize:
		return d.corrupt("offset table at %d out of range", t.offsetTableOffset)
	case t.numObjects > (d.size-trailerSize-t.offsetTableOffset)/uint64(t.offsetIntSize):
		return d.corrupt("offset table for %d objects overruns the trailer", t.numObjects)
	}
	d.trailer = t
	return nil
}

func (d *document) readOffsetTable() error {
	if err := d.seek(d.trailer.offsetTableOffset); err != nil {
		return err
	}
	d.offsets = make([]uint64, d.trailer.numObjects)
	for i := range d.offsets {
		off, err := d.readUint(d.trailer.offsetIntSize)
		if err != nil {
			return d.corrupt("offset table entry %d: %v", i, err)
		}
		if off < headerSize || off >= d.trailer.offsetTableOffset {
			return d.corrupt("object %d at offset %d out of range", i, off)
		}
		d.offsets[i] = off
	}
	return nil
}

// readUint reads a big-endian unsigned integer of 1 to 8 bytes
func (d *document) readUint(n uint8) (uint64, error) {
	switch n {
	case 1:
		v, err := d.io.ReadU1()
		return uint64(v), err
	case 2:
		v, err := d.io.ReadU2be()
		return uint64(v), err
	case 4:
		v, err := d.io.ReadU4be()
		return uint64(v), err
	case 8:
		return d.io.ReadU8be()
	}
	buf, err := d.io.ReadBytes(int(n))
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func (d *document) decodeRoot() (any, error) {
	return d.decodeObject(d.trailer.topObject, 0)
}

func (d *document) decodeObject(ref uint64, depth int) (any, error) {
	if ref >= d.trailer.numObjects {
		return nil, d.corrupt("object reference %d out of range", ref)
	}
	if depth > d.maxDepth {
		return nil, d.corrupt("nesting deeper than %d", d.maxDepth)
	}
	d.visits++
	if d.visits > maxVisits {
		return nil, d.corrupt("more than %d object visits", maxVisits)
	}
	if d.visits%1024 == 0 {
		if err := d.ctx.Err(); err != nil {
			return nil, err
		}
	}
	if err := d.seek(d.offsets[ref]); err != nil {
		return nil, err
	}
	marker, err := d.io.ReadU1()
	if err != nil {
		return nil, d.corrupt("object %d marker: %v", ref, err)
	}
	kind, info := marker>>4, marker&0x0f

	switch kind {
	case 0x0:
		switch info {
		case 0x0, 0xf:
			return nil, nil
		case 0x8:
			return false, nil
		case 0x9:
			return true, nil
		}
	case 0x1:
		return d.readInt(info)
	case 0x2:
		return d.readReal(info)
	case 0x3:
		if info == 0x3 {
			secs, err := d.io.ReadF8be()
			if err != nil {
				return nil, d.corrupt("date: %v", err)
			}
			return appleEpoch.Add(time.Duration(secs * float64(time.Second))), nil
		}
	case 0x4:
		return d.readData(info)
	case 0x5:
		buf, err := d.readData(info)
		if err != nil {
			return nil, err
		}
		return string(buf), nil
	case 0x6:
		return d.readUTF16(info)
	case 0x8:
		v, err := d.readUint(info + 1)
		if err != nil {
			return nil, d.corrupt("uid: %v", err)
		}
		return UID(v), nil
	case 0xa, 0xc:
		return d.readArray(ref, info, depth)
	case 0xd:
		return d.readDict(ref, info, depth)
	}
	return nil, d.corrupt("unknown marker 0x%02x for object %d", marker, ref)
}

func (d *document) readInt(info uint8) (any, error) {
	switch info {
	case 0, 1, 2:
		v, err := d.readUint(1 << info)
		if err != nil {
			return nil, d.corrupt("integer: %v", err)
		}
		return int64(v), nil
	case 3:
		v, err := d.io.ReadS8be()
		if err != nil {
			return nil, d.corrupt("integer: %v", err)
		}
		return v, nil
	case 4:
		buf, err := d.io.ReadBytes(16)
		if err != nil {
			return nil, d.corrupt("integer: %v", err)
		}
		var v uint64
		for _, b := range buf[8:] {
			v = v<<8 | uint64(b)
		}
		return v, nil
	}
	return nil, d.corrupt("integer width 2^%d", info)
}

func (d *document) readReal(info uint8) (any, error) {
	switch info {
	case 2:
		v, err := d.io.ReadF4be()
		if err != nil {
			return nil, d.corrupt("real: %v", err)
		}
		return float64(v), nil
	case 3:
		v, err := d.io.ReadF8be()
		if err != nil {
			return nil, d.corrupt("real: %v", err)
		}
		return v, nil
	}
	return nil, d.corrupt("real width 2^%d", info)
}

// readCount resolves the element count of a variable length object
func (d *document) readCount(info uint8) (uint64, error) {
	if info != 0xf {
		return uint64(info), nil
	}
	marker, err := d.io.ReadU1()
	if err != nil {
		return 0, d.corrupt("count marker: %v", err)
	}
	if marker>>4 != 0x1 {
		return 0, d.corrupt("count marker 0x%02x is not an integer", marker)
	}
	v, err := d.readInt(marker & 0x0f)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		if n < 0 {
			return 0, d.corrupt("negative count %d", n)
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	}
	return 0, d.corrupt("count of type %T", v)
}

func (d *document) readData(info uint8) ([]byte, error) {
	n, err := d.readCount(info)
	if err != nil {
		return nil, err
	}
	if n > d.remaining() || n > math.MaxInt32 {
		return nil, d.corrupt("%d bytes overrun the document", n)
	}
	buf, err := d.io.ReadBytes(int(n))
	if err != nil {
		return nil, d.corrupt("data: %v", err)
	}
	return buf, nil
}

func (d *document) readUTF16(info uint8) (string, error) {
	n, err := d.readCount(info)
	if err != nil {
		return "", err
	}
	if n > d.remaining()/2 {
		return "", d.corrupt("%d UTF-16 units overrun the document", n)
	}
	raw, err := d.io.ReadBytes(int(n * 2))
	if err != nil {
		return "", d.corrupt("utf-16 string: %v", err)
	}
	out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return "", d.corrupt("utf-16 string: %v", err)
	}
	return string(out), nil
}

// readRefs reads n object references at the current position
func (d *document) readRefs(n uint64) ([]uint64, error) {
	if n > d.remaining()/uint64(d.trailer.objectRefSize) {
		return nil, d.corrupt("%d references overrun the document", n)
	}
	refs := make([]uint64, n)
	for i := range refs {
		ref, err := d.readUint(d.trailer.objectRefSize)
		if err != nil {
			return nil, d.corrupt("reference %d: %v", i, err)
		}
		refs[i] = ref
	}
	return refs, nil
}

func (d *document) enter(ref uint64) error {
	if d.active[ref] {
		return d.corrupt("object %d contains itself", ref)
	}
	d.active[ref] = true
	return nil
}

func (d *document) leave(ref uint64) {
	delete(d.active, ref)
}

func (d *document) readArray(ref uint64, info uint8, depth int) ([]any, error) {
	n, err := d.readCount(info)
	if err != nil {
		return nil, err
	}
	refs, err := d.readRefs(n)
	if err != nil {
		return nil, err
	}
	if err := d.enter(ref); err != nil {
		return nil, err
	}
	defer d.leave(ref)

	items := make([]any, 0, len(refs))
	for _, child := range refs {
		v, err := d.decodeObject(child, depth+1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func (d *document) readDict(ref uint64, info uint8, depth int) (map[string]any, error) {
	n, err := d.readCount(info)
	if err != nil {
		return nil, err
	}
	if n > d.remaining() {
		return nil, d.corrupt("dictionary of %d entries overruns the document", n)
	}
	refs, err := d.readRefs(n * 2)
	if err != nil {
		return nil, err
	}
	if err := d.enter(ref); err != nil {
		return nil, err
	}
	defer d.leave(ref)

	dict := make(map[string]any, n)
	for i := uint64(0); i < n; i++ {
		k, err := d.decodeObject(refs[i], depth+1)
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, d.corrupt("dictionary key of type %T", k)
		}
		v, err := d.decodeObject(refs[n+i], depth+1)
		if err != nil {
			return nil, err
		}
		dict[key] = v
	}
	return dict, nil
}
