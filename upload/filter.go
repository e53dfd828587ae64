package upload

import (
	"context"
	"fmt"
	"strings"
)

// ParseTypes splits an accept list such as "image/*, video/mp4".
func ParseTypes(types string) []string {
	var out []string
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// TypeFilter rejects files whose content type does not match types before
// they reach next. An empty list accepts everything.
func TypeFilter(types string, next Uploader) Uploader {
	patterns := ParseTypes(types)
	if len(patterns) == 0 {
		return next
	}
	return UploaderFunc(func(ctx context.Context, file File) (Response, error) {
		if !MatchType(patterns, file.ContentType()) {
			return Response{}, fmt.Errorf("%w: %s (%s)", ErrTypeNotAllowed, file.Name(), file.ContentType())
		}
		return next.Upload(ctx, file)
	})
}
