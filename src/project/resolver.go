package project

import (
	"net/url"
	"strings"

	"github.com/taskweave/go-assistant/src/fault"
)

// RepositoryRef identifies one branch of one hosted repository. It is
// resolved once per tool invocation and reused for every gateway call.
type RepositoryRef struct {
	Owner  string
	Name   string
	Branch string
}

// DefaultBranch is assumed when the input carries no branch information.
const DefaultBranch = "main"

func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name + "@" + r.Branch
}

// ResolveRepository turns a loose user- or agent-supplied string into a
// RepositoryRef. Accepted inputs:
//
//   - a full URL such as https://github.com/octo/demo
//   - an owner/name pair such as octo/demo
//   - a bare name matched against the project's known repositories
//
// Bare names match case-insensitively on the repository name component. An
// input matching several known repositories is ambiguous and an input
// matching none is unresolvable; both return a typed failure, never a
// silent no-op.
func ResolveRepository(input string, known []string) (RepositoryRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return RepositoryRef{}, fault.InvalidArguments("repository reference is empty")
	}

	if strings.Contains(input, "://") {
		return resolveURL(input)
	}

	if owner, name, ok := strings.Cut(input, "/"); ok {
		owner = strings.TrimSpace(owner)
		name = strings.TrimSpace(strings.TrimSuffix(name, ".git"))
		if owner == "" || name == "" || strings.Contains(name, "/") {
			return RepositoryRef{}, fault.InvalidArguments("malformed repository reference %q", input)
		}
		return RepositoryRef{Owner: owner, Name: name, Branch: DefaultBranch}, nil
	}

	return resolveBareName(input, known)
}

func resolveURL(input string) (RepositoryRef, error) {
	u, err := url.Parse(input)
	if err != nil {
		return RepositoryRef{}, fault.InvalidArguments("malformed repository URL %q", input)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryRef{}, fault.InvalidArguments("repository URL %q has no owner/name path", input)
	}
	return RepositoryRef{
		Owner:  parts[0],
		Name:   strings.TrimSuffix(parts[1], ".git"),
		Branch: DefaultBranch,
	}, nil
}

func resolveBareName(name string, known []string) (RepositoryRef, error) {
	var matches []RepositoryRef
	for _, candidate := range known {
		owner, repo, ok := strings.Cut(candidate, "/")
		if !ok {
			continue
		}
		if strings.EqualFold(repo, name) {
			matches = append(matches, RepositoryRef{Owner: owner, Name: repo, Branch: DefaultBranch})
		}
	}
	switch len(matches) {
	case 0:
		return RepositoryRef{}, fault.NotFound("repository %q is not linked to this project", name)
	case 1:
		return matches[0], nil
	default:
		return RepositoryRef{}, fault.InvalidArguments("repository %q is ambiguous: %d known repositories match", name, len(matches))
	}
}
