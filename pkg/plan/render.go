// pkg/plan/render.go
package plan

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// String renders the plan one access per line:
//
//	User: fallible, errors=opaque
//	  id       column "id"         return
//	  name     column "full_name"  return
//	  profile  nested Profile      return
//
// A unit record renders as its header followed by {}.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s, errors=%s\n", p.Record, p.Mode, p.ErrorKind)
	if len(p.Accesses) == 0 {
		b.WriteString("  {}\n")
		return b.String()
	}

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, a := range p.Accesses {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", a.Field.Slot, a.describe(), a.Failure)
	}
	tw.Flush()
	return b.String()
}

func (a Access) describe() string {
	switch a.Kind {
	case AccessColumn:
		return "column " + a.Key.String()
	case AccessNested:
		return "nested " + a.Nested
	default:
		return a.Kind.String()
	}
}
