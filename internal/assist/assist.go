// Package assist turns a pasted customer chat message into intake form
// fields with the help of a language model.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type ErrCode string

const (
	ErrRateLimited ErrCode = "RATE_LIMITED"
	ErrAIFailed    ErrCode = "AI_FAILED"
)

type codedError struct {
	code ErrCode
	msg  string
	err  error
}

func (e *codedError) Error() string {
	if e.msg == "" {
		return string(e.code)
	}
	return string(e.code) + ": " + e.msg
}
func (e *codedError) Code() ErrCode { return e.code }
func (e *codedError) Unwrap() error { return e.err }

func makeErr(c ErrCode, msg string, cause error) error {
	return &codedError{code: c, msg: msg, err: cause}
}

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// ErrUnparseable means the model answered but no JSON object could be read.
var ErrUnparseable = makeErr(ErrAIFailed, "response is not a JSON object", nil)

// Extraction holds the intake fields found in a message. Missing fields are
// empty strings.
type Extraction struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Recipient     string `json:"recipient"`
	Institution   string `json:"institution"`
	Grade         string `json:"grade"`
	BookTitle     string `json:"book_title"`
}

// Generator sends a prompt to a language model and returns its text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt wraps the raw message in the extraction instructions.
func BuildPrompt(raw string) string {
	return fmt.Sprintf(`You help a school bookshop take orders. Extract the order details from the customer message below.
Return only a JSON object with exactly these string fields:
{"customer_name": "", "customer_phone": "", "recipient": "", "institution": "", "grade": "", "book_title": ""}
customer_name is the person writing, recipient is the student the book is for.
Leave a field empty when the message does not say it. The message is usually in Spanish.

Message:
"""
%s
"""`, raw)
}

// ExtractJSON reads the first JSON object out of a model reply, tolerating
// markdown code fences and surrounding prose.
func ExtractJSON(text string) (Extraction, error) {
	var ex Extraction
	s := strings.ReplaceAll(text, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last < first {
		return ex, ErrUnparseable
	}
	var raw struct {
		CustomerName  looseString `json:"customer_name"`
		CustomerPhone looseString `json:"customer_phone"`
		Recipient     looseString `json:"recipient"`
		Institution   looseString `json:"institution"`
		Grade         looseString `json:"grade"`
		BookTitle     looseString `json:"book_title"`
	}
	if err := json.Unmarshal([]byte(s[first:last+1]), &raw); err != nil {
		return ex, ErrUnparseable
	}
	return Extraction{
		CustomerName:  string(raw.CustomerName),
		CustomerPhone: string(raw.CustomerPhone),
		Recipient:     string(raw.Recipient),
		Institution:   string(raw.Institution),
		Grade:         string(raw.Grade),
		BookTitle:     string(raw.BookTitle),
	}, nil
}

// looseString accepts any JSON scalar. Models sometimes answer a grade or a
// phone number as a bare number; objects and arrays decode to "".
type looseString string

func (l *looseString) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v := v.(type) {
	case string:
		*l = looseString(v)
	case json.Number:
		*l = looseString(v.String())
	case bool:
		*l = looseString(strconv.FormatBool(v))
	default:
		*l = ""
	}
	return nil
}

// Extractor runs the whole round trip: prompt, model call, parsing and
// normalization.
type Extractor struct {
	gen Generator
}

func NewExtractor(gen Generator) *Extractor {
	return &Extractor{gen: gen}
}

func (x *Extractor) Extract(ctx context.Context, raw string) (Extraction, error) {
	text, err := x.gen.Generate(ctx, BuildPrompt(raw))
	if err != nil {
		return Extraction{}, err
	}
	ex, err := ExtractJSON(text)
	if err != nil {
		return Extraction{}, err
	}
	return Normalize(ex), nil
}
