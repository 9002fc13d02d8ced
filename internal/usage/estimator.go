// Package usage estimates token usage for generations whose provider did
// not report it, using tiktoken encodings.
// This package is internal and should not be imported by external projects.
package usage

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/luminar-ai/luminar-go/types"
)

// modelEncodings maps model names to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

const defaultEncoding = "cl100k_base"

// EncodingFor resolves the tiktoken encoding for a model name, matching
// by prefix so dated snapshots resolve like their base model.
func EncodingFor(model string) string {
	if enc, ok := modelEncodings[model]; ok {
		return enc
	}
	for prefix, enc := range modelEncodings {
		if strings.HasPrefix(model, prefix) {
			return enc
		}
	}
	return defaultEncoding
}

// Estimator counts tokens for one model. The encoding is initialized
// lazily because tiktoken may download encoding data on first use.
type Estimator struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewEstimator creates an Estimator for the given model.
func NewEstimator(model string) *Estimator {
	return &Estimator{
		model:    model,
		encoding: EncodingFor(model),
	}
}

func (e *Estimator) init() error {
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(e.encoding)
		if err != nil {
			e.initErr = fmt.Errorf("init tiktoken encoding %s: %w", e.encoding, err)
			return
		}
		e.enc = enc
	})
	return e.initErr
}

// CountTokens returns the token count of text under the model's encoding.
func (e *Estimator) CountTokens(text string) (int, error) {
	if err := e.init(); err != nil {
		return 0, err
	}
	return len(e.enc.Encode(text, nil, nil)), nil
}

// EstimateUsage builds a Usage record from raw input and output text.
// It fails only if the encoding cannot be initialized.
func (e *Estimator) EstimateUsage(input, output string) (types.Usage, error) {
	in, err := e.CountTokens(input)
	if err != nil {
		return types.Usage{}, err
	}
	out, err := e.CountTokens(output)
	if err != nil {
		return types.Usage{}, err
	}
	return types.Usage{
		InputTokens:  in,
		OutputTokens: out,
		TotalTokens:  in + out,
	}, nil
}
