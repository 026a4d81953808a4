package services

import (
	"fmt"
	"regexp"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BaseSlug derives the URL-safe lowercase hyphenated form of a store name.
func BaseSlug(name string) string {
	return slug.Make(name)
}

// slugPattern matches the base slug optionally followed by a numeric suffix,
// i.e. "cafe-bar", "cafe-bar-2", "cafe-bar-13".
func slugPattern(base string) primitive.Regex {
	return primitive.Regex{
		Pattern: fmt.Sprintf("^(%s)(-[0-9]*)?$", regexp.QuoteMeta(base)),
		Options: "i",
	}
}

// suffixedSlug produces the nth candidate for a contested base slug:
// taken==0 yields the base itself, otherwise base-<taken+1>.
func suffixedSlug(base string, taken int64) string {
	if taken == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, taken+1)
}
