package model

// RepoKey builds the key used to scope favourites to a username/repository pair
func RepoKey(username string, repository string) string {
	return username + "/" + repository
}

type GithubCommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"` // RFC3339, kept as string so snapshots round-trip as is
}

type GithubCommitInfo struct {
	Author  GithubCommitAuthor `json:"author"`
	Message string             `json:"message"`
}

type GithubCommit struct {
	SHA     string           `json:"sha"`
	Commit  GithubCommitInfo `json:"commit"`
	HTMLURL string           `json:"html_url"`
	Author  *GithubUser      `json:"author,omitempty"` // nil when the git author is not linked to a github account
}

// file status as returned by github
// added | modified | removed are the common ones, renamed, copied ... are kept as is
const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
)

type GithubCommitFile struct {
	Filename  string  `json:"filename"`
	Additions int     `json:"additions"`
	Deletions int     `json:"deletions"`
	Changes   int     `json:"changes"`
	Status    string  `json:"status"`
	RawURL    string  `json:"raw_url"`
	BlobURL   string  `json:"blob_url"`
	Patch     *string `json:"patch,omitempty"` // binary or huge files have no patch
}

type GithubCommitStats struct {
	Total     int `json:"total"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

type GithubCommitDetails struct {
	GithubCommit
	Files []GithubCommitFile `json:"files"`
	Stats GithubCommitStats  `json:"stats"`
}
