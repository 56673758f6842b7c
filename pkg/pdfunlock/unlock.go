// Package pdfunlock strips encryption and permission restrictions from PDF
// documents. The transform is total: when a document cannot be opened (it
// needs a real password, or it is not a usable PDF at all) the input bytes are
// returned unchanged rather than failing the caller's upload.
package pdfunlock

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Unlock re-serializes a PDF without any protection. Documents guarded only by
// an owner/permissions password open under the empty user password and come
// back stripped; documents needing a non-empty user password come back
// byte-for-byte unchanged.
func Unlock(data []byte) []byte {
	if len(data) == 0 {
		return data
	}

	out, err := decrypt(data)
	if err != nil {
		return data
	}
	return out
}

func decrypt(data []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.DECRYPT
	conf.ValidationMode = model.ValidationRelaxed

	var buf bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
