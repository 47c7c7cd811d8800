package token

// keywords maps lowercase keyword strings to token types. This is
// deliberately scoped to what the select/from/lateral/where/group-by
// grammar (spec.md §4.1) actually parses — the engine never parses
// INSERT/UPDATE/DELETE/JOIN/DDL/transaction/locking statements, so
// their keywords were never carried over from the dialect this parser
// was trimmed from.
var keywords map[string]Token

func init() {
	keywords = map[string]Token{
		"select":   SELECT,
		"from":     FROM,
		"where":    WHERE,
		"and":      AND,
		"or":       OR,
		"not":      NOT,
		"in":       IN,
		"like":     LIKE,
		"ilike":    ILIKE,
		"between":  BETWEEN,
		"is":       IS,
		"null":     NULL,
		"true":     TRUE,
		"false":    FALSE,
		"as":       AS,
		"all":      ALL,
		"distinct": DISTINCT,

		"order":  ORDER,
		"by":     BY,
		"group":  GROUP,
		"having": HAVING,
		"limit":  LIMIT,

		"union":     UNION,
		"intersect": INTERSECT,
		"except":    EXCEPT,

		"outer":   OUTER,
		"lateral": LATERAL,
		"view":    VIEW,

		// Data types (spec.md §6).
		"int":       INT_TYPE,
		"smallint":  SMALLINT,
		"bigint":    BIGINT,
		"tinyint":   TINYINT,
		"double":    DOUBLE,
		"float":     FLOAT_TYPE,
		"decimal":   DECIMAL,
		"timestamp": TIMESTAMP,
		"boolean":   BOOLEAN,
		"bool":      BOOL,
		"array":     ARRAY,

		// CASE/CAST.
		"case": CASE,
		"when": WHEN,
		"then": THEN,
		"else": ELSE,
		"end":  END,
		"cast": CAST,

		// Pattern matching.
		"regexp": REGEXP,
		"rlike":  RLIKE,
	}
}

// LookupIdent returns the token type for an identifier.
// If the identifier is a keyword, returns the keyword token.
// Otherwise returns IDENT.
// This implementation avoids allocation by checking if the string
// is already lowercase before doing a conversion.
func LookupIdent(ident string) Token {
	// Fast path: check if already lowercase (common case)
	if isLowercase(ident) {
		if tok, ok := keywords[ident]; ok {
			return tok
		}
		return IDENT
	}

	// Slow path: need to lowercase
	// Use stack-allocated buffer for short strings (covers all keywords)
	if len(ident) <= 32 {
		var buf [32]byte
		for i := 0; i < len(ident); i++ {
			c := ident[i]
			if c >= 'A' && c <= 'Z' {
				buf[i] = c + 32
			} else {
				buf[i] = c
			}
		}
		// Convert to string for map lookup - this still allocates
		// but only for mixed-case identifiers (rare for SQL)
		lower := string(buf[:len(ident)])
		if tok, ok := keywords[lower]; ok {
			return tok
		}
		return IDENT
	}

	// Very long identifiers - can't be keywords anyway (max keyword is ~20 chars)
	return IDENT
}

// isLowercase checks if a string contains only lowercase ASCII letters,
// digits, and underscores (valid SQL identifier chars).
func isLowercase(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			return false
		}
	}
	return true
}

// IsKeyword returns true if the identifier is a SQL keyword.
func IsKeyword(ident string) bool {
	return LookupIdent(ident) != IDENT
}
