package git

import "context"

// RevParse resolves ref to a full commit ID.
func (s *Session) RevParse(ctx context.Context, ref string) (string, error) {
	return s.run(ctx, "rev-parse", "--verify", ref+"^{commit}")
}

// RefExists reports whether ref resolves to a commit. Any resolution failure
// counts as absent.
func (s *Session) RefExists(ctx context.Context, ref string) bool {
	_, err := s.run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	return err == nil
}

// BranchExists reports whether a local branch with the given name exists.
func (s *Session) BranchExists(ctx context.Context, name string) bool {
	_, err := s.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// PathExistsAt reports whether path exists in the tree of ref.
func (s *Session) PathExistsAt(ctx context.Context, ref, path string) bool {
	_, err := s.run(ctx, "rev-parse", "--verify", "--quiet", ref+":"+path)
	return err == nil
}

// MergeBase returns the common ancestor of the two refs.
func (s *Session) MergeBase(ctx context.Context, a, b string) (string, error) {
	return s.run(ctx, "merge-base", a, b)
}

// Describe returns a human-readable name for ref, falling back to the
// abbreviated commit ID when no tag is reachable.
func (s *Session) Describe(ctx context.Context, ref string) (string, error) {
	return s.run(ctx, "describe", "--tags", "--always", ref)
}

// SwitchCreate creates branch name at HEAD and checks it out.
func (s *Session) SwitchCreate(ctx context.Context, name string) error {
	_, err := s.run(ctx, "switch", "--create", name)
	return err
}

// Switch checks out an existing branch.
func (s *Session) Switch(ctx context.Context, name string) error {
	_, err := s.run(ctx, "switch", name)
	return err
}

// DeleteBranch force-deletes a local branch.
func (s *Session) DeleteBranch(ctx context.Context, name string) error {
	_, err := s.run(ctx, "branch", "-D", name)
	return err
}
