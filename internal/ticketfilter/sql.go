package ticketfilter

import (
	"fmt"
	"strings"
)

type sqlBuilder struct {
	args   []any
	offset int
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", b.offset+len(b.args))
}

// ToSQL renders spec as a WHERE condition. Placeholders start at $(argOffset+1)
// so the condition can be appended to a statement that already binds arguments.
func ToSQL(spec Spec, argOffset int) (string, []any) {
	if spec == nil {
		spec = All()
	}
	b := &sqlBuilder{offset: argOffset}
	return spec.render(b), b.args
}

func (allSpec) render(*sqlBuilder) string { return "TRUE" }

func (noneSpec) render(*sqlBuilder) string { return "FALSE" }

func (s inSpec) render(b *sqlBuilder) string {
	column := columns[s.field]
	if len(s.values) == 1 {
		return fmt.Sprintf("%s = %s", column, b.bind(s.values[0]))
	}
	return fmt.Sprintf("%s = ANY(%s)", column, b.bind(s.values))
}

func (s andSpec) render(b *sqlBuilder) string {
	return join(b, s.parts, " AND ")
}

func (s orSpec) render(b *sqlBuilder) string {
	return join(b, s.parts, " OR ")
}

func join(b *sqlBuilder, parts []Spec, sep string) string {
	rendered := make([]string, len(parts))
	for i, part := range parts {
		rendered[i] = part.render(b)
	}
	return "(" + strings.Join(rendered, sep) + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// The term is matched literally, as Matches does.
func (s searchSpec) render(b *sqlBuilder) string {
	p := b.bind("%" + likeEscaper.Replace(s.term) + "%")
	return fmt.Sprintf(`(LOWER(description) LIKE %[1]s ESCAPE '\' OR LOWER(number) LIKE %[1]s ESCAPE '\' OR LOWER(COALESCE(address, '')) LIKE %[1]s ESCAPE '\')`, p)
}

func (s createdSpec) render(b *sqlBuilder) string {
	var clauses []string
	if s.from != nil {
		clauses = append(clauses, "created_at >= "+b.bind(*s.from))
	}
	if s.to != nil {
		clauses = append(clauses, "created_at <= "+b.bind(*s.to))
	}
	return "(" + strings.Join(clauses, " AND ") + ")"
}
