// Package tokenizer estimates token counts for aggregated file content.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	// Model selects a tiktoken encoding; empty means the heuristic counter.
	Model string
	// HeuristicDivisor overrides DefaultHeuristicDivisor when positive.
	HeuristicDivisor int
}

const (
	// DefaultHeuristicDivisor approximates one token per four characters.
	DefaultHeuristicDivisor = 4
	// defaultEncodingName is the fallback tiktoken encoding for unknown models.
	defaultEncodingName = "cl100k_base"
	// heuristicCounterName identifies the character-ratio estimate in statistics output.
	heuristicCounterName = "heuristic"
)

// NewCounter returns a Counter for the requested configuration together
// with the resolved counter name. An empty model yields the heuristic
// counter; a model unknown to tiktoken falls back to the default
// encoding.
func NewCounter(configuration Config) (Counter, string, error) {
	modelName := strings.ToLower(strings.TrimSpace(configuration.Model))
	if modelName == "" {
		heuristic := NewHeuristicCounter(configuration.HeuristicDivisor)
		return heuristic, heuristic.Name(), nil
	}

	encoding, encodingError := tiktoken.EncodingForModel(modelName)
	if encodingError == nil && encoding != nil {
		return encodingCounter{encoding: encoding, name: modelName}, modelName, nil
	}

	fallbackEncoding, fallbackError := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackError != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackError)
	}
	return encodingCounter{encoding: fallbackEncoding, name: defaultEncodingName}, defaultEncodingName, nil
}

// encodingCounter counts tokens with a tiktoken encoding.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// Name returns the resolved encoding or model name.
func (counter encodingCounter) Name() string { return counter.name }

// CountString encodes the input and returns the token count.
func (counter encodingCounter) CountString(input string) (int, error) {
	if input == "" {
		return 0, nil
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}

// HeuristicCounter estimates tokens as character count divided by a
// fixed divisor, the approximation used when no model is configured.
type HeuristicCounter struct {
	divisor int
}

// NewHeuristicCounter builds a heuristic counter; a non-positive divisor
// selects DefaultHeuristicDivisor.
func NewHeuristicCounter(divisor int) HeuristicCounter {
	if divisor <= 0 {
		divisor = DefaultHeuristicDivisor
	}
	return HeuristicCounter{divisor: divisor}
}

// Name identifies the heuristic counter.
func (counter HeuristicCounter) Name() string { return heuristicCounterName }

// CountString divides the character count by the configured divisor.
func (counter HeuristicCounter) CountString(input string) (int, error) {
	return utf8.RuneCountInString(input) / counter.divisor, nil
}

var _ Counter = encodingCounter{}
var _ Counter = HeuristicCounter{}
