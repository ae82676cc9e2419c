package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary clipwatch shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the result of resolving one Requirement. Resolved holds the
// absolute path when Available is set; Detail explains why it is not.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Resolved    string
	Detail      string
}

// CheckBinaries resolves each requirement against PATH in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = check(req)
	}
	return results
}

func check(req Requirement) Status {
	st := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if st.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	resolved, err := exec.LookPath(st.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", st.Command)
		return st
	}
	st.Available = true
	st.Resolved = resolved
	return st
}
