package dice

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/x448/float16"
)

// ErrUnsupportedDtype means a Go element type has no zarr encoding, or a
// stored dtype can't be decoded into the requested element type
var ErrUnsupportedDtype = errors.New("unsupported dtype")

// Dtype is a zarr data type, written as a NumPy array protocol type string
// (typestr). The format consists of 3 parts:
//   - One character describing the byteorder of the data:
//     "<": little-endian; ">": big-endian; "|": not-relevant
//   - One character code giving the basic type of the array:
//     "b": Boolean, "i": integer, "u": unsigned integer, "f": floating point,
//     "c": complex floating point, "m": timedelta, "M": datetime,
//     "S": string, "U": unicode, "V": other
//   - An integer specifying the number of bytes the type uses.
//
// Within the zarr format byte order MUST be specified.
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

func ParseDtype(s string) (dt Dtype, err error) {
	// python zarr HTML-escapes the byte order when serializing JSON
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if len(s) < 3 {
		return dt, fmt.Errorf("invalid Dtype string. %q is too short", s)
	}

	boByte, s := s[0], s[1:]
	dt.ByteOrder, err = ParseByteOrder(rune(boByte))
	if err != nil {
		return dt, err
	}

	typeByte, s := s[0], s[1:]
	dt.BasicType, err = ParseBasicType(rune(typeByte))
	if err != nil {
		return dt, err
	}

	sizeStr, unitStr := s, ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		sizeStr, unitStr = s[:i], s[i:]
	}

	size, err := strconv.ParseInt(sizeStr, 10, 0)
	if err != nil {
		return dt, err
	}
	dt.ByteSize = int(size)
	dt.Units = unitStr

	return dt, nil
}

// DtypeOf gives the zarr dtype used to store elements of type T. Multi-byte
// types are little-endian.
func DtypeOf[T any]() (Dtype, error) {
	var zero T
	switch any(zero).(type) {
	case bool:
		return Dtype{ByteOrder: BONotRelevant, BasicType: BTBoolean, ByteSize: 1}, nil
	case int8:
		return Dtype{ByteOrder: BONotRelevant, BasicType: BTInteger, ByteSize: 1}, nil
	case int16:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 2}, nil
	case int32:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 4}, nil
	case int64:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 8}, nil
	case uint8:
		return Dtype{ByteOrder: BONotRelevant, BasicType: BTUnsigned, ByteSize: 1}, nil
	case uint16:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 2}, nil
	case uint32:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 4}, nil
	case uint64:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 8}, nil
	case float16.Float16:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 2}, nil
	case float32:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 4}, nil
	case float64:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 8}, nil
	case complex64:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTComplex, ByteSize: 8}, nil
	case complex128:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTComplex, ByteSize: 16}, nil
	}
	return Dtype{}, fmt.Errorf("%w: no zarr dtype for %T", ErrUnsupportedDtype, zero)
}

// checkDtype errors unless elements of type T decode from dt
func checkDtype[T any](dt Dtype) error {
	want, err := DtypeOf[T]()
	if err != nil {
		return err
	}
	if want.BasicType != dt.BasicType || want.ByteSize != dt.ByteSize {
		var zero T
		return fmt.Errorf("%w: can't read %s as %T", ErrUnsupportedDtype, dt, zero)
	}
	return nil
}

// binaryOrder is the encoding/binary byte order for dt. Single byte types
// don't care, and get big-endian.
func (dt Dtype) binaryOrder() binary.ByteOrder {
	if dt.ByteOrder == BOLittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (dt Dtype) String() string {
	s := fmt.Sprintf("%s%s%d", string(dt.ByteOrder), string(dt.BasicType), dt.ByteSize)
	if dt.Units != "" {
		s += dt.Units
	}
	return s
}

func (dt Dtype) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.String())
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}

	*dt = t
	return nil
}

type ByteOrder rune

func ParseByteOrder(r rune) (ByteOrder, error) {
	o := ByteOrder(r)
	if _, ok := byteOrders[o]; !ok {
		return o, fmt.Errorf("unsupported byte order format: %q", r)
	}
	return o, nil
}

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

var byteOrders = map[ByteOrder]struct{}{
	BONotRelevant:  {},
	BOLittleEndian: {},
	BOBigEndian:    {},
}

type BasicType rune

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := supportedBasicTypes[t]; !ok {
		return t, fmt.Errorf("unsupported basic type: %q", r)
	}
	return t, nil
}

func (bt BasicType) Human() string {
	return supportedBasicTypes[bt]
}

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTOther         BasicType = 'V'
)

var supportedBasicTypes = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
	BTComplex:       "complex",
	BTTimedelta:     "timeDelta",
	BTDatetime:      "dateTime",
	BTString:        "string",
	BTUnicode:       "unicode",
	BTOther:         "other",
}
