package domain

import (
	"bytes"
	"encoding/json"
)

// LedgerID is an identifier the ledger may send either as a JSON number or a string
type LedgerID string

func (id *LedgerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = LedgerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = LedgerID(n.String())
	return nil
}

func (id LedgerID) String() string {
	return string(id)
}

// LedgerText is a descriptive ledger field. Strings, numbers and booleans all decode
// to their text form so one odd value cannot fail the whole catalog.
type LedgerText string

func (t *LedgerText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = LedgerText(s)
		return nil
	case bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")):
		*t = LedgerText(data)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// objects and arrays carry no usable text
		*t = ""
		return nil
	}
	*t = LedgerText(n.String())
	return nil
}

func (t LedgerText) String() string {
	return string(t)
}

// PriceList is a ledger price-list array. Any non-list value decodes as an empty list.
type PriceList []PriceEntry

func (p *PriceList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*p = nil
		return nil
	}
	var entries []PriceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		*p = nil
		return nil
	}
	*p = entries
	return nil
}
