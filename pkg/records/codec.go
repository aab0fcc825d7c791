package records

import (
	"errors"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Content is encoded with Core Deterministic Encoding so equal app data always produces
// identical bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("records: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("records: CBOR decoder initialization failed: " + err.Error())
	}
}

type content struct {
	AppData map[string]any `cbor:"app_data"`
}

func encodeContent(r *Record) ([]byte, error) {
	b, err := encMode.Marshal(content{AppData: r.AppData()})
	if err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}
	return b, nil
}

func decodeContent(data []byte) (map[string]any, error) {
	var c content
	if err := decMode.Unmarshal(data, &c); err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	if c.AppData == nil {
		c.AppData = make(map[string]any)
	}
	return c.AppData, nil
}
