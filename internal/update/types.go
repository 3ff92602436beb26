package update

// Category names a bucket of the change report
type Category string

const (
	CategoryAdded   Category = "Added"
	CategoryUpdated Category = "Updated"
	CategoryDeleted Category = "Deleted"
)

// Categories lists the report buckets in print order
var Categories = []Category{CategoryAdded, CategoryUpdated, CategoryDeleted}

// Options controls a single update run
type Options struct {
	// Branch to switch to before pulling. Empty keeps the current branch
	// and enables the upstream tracking advisory.
	Branch string
}

// Report holds package names changed by an update, in diff order
type Report struct {
	Added   []string
	Updated []string
	Deleted []string
}

// Packages returns the bucket for category
func (r *Report) Packages(c Category) []string {
	switch c {
	case CategoryAdded:
		return r.Added
	case CategoryUpdated:
		return r.Updated
	case CategoryDeleted:
		return r.Deleted
	}
	return nil
}

// Empty returns true if no package changed
func (r *Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Updated) == 0 && len(r.Deleted) == 0
}

// Result describes what an update run did
type Result struct {
	Branch         string
	UpstreamBranch string // local branch tracking upstream, if any
	OldRevision    string
	NewRevision    string
	Report         *Report // nil when the revision did not move
}

// Changed returns true if the pull moved HEAD
func (r *Result) Changed() bool {
	return r.OldRevision != r.NewRevision
}
