package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")

	// Pipeline stage failures. Only ErrGenerationFailed is fatal to a
	// request; the others mark degraded-but-successful paths.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrRerankUnavailable    = errors.New("rerank unavailable")
	ErrRewriteUnavailable   = errors.New("rewrite unavailable")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrEmptyCorpus          = errors.New("no candidates in corpus")
	ErrSessionContention    = errors.New("session busy")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
