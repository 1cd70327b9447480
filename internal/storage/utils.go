package storage

import (
	"strconv"
	"strings"

	"shelf-go/internal/models"
)

// StrToUint parses a decimal id. Zero is rejected since no row has it.
func StrToUint(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if val == 0 {
		return 0, strconv.ErrRange
	}
	return uint(val), nil
}

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern for the name_lower column.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(models.FoldName(query)) + "%"
}
