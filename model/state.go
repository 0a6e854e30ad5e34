package model

// FavouriteCommits maps a RepoKey to the favourite commits of that repository
type FavouriteCommits map[string][]GithubCommit

// Clone returns a deep copy, slices included
func (f FavouriteCommits) Clone() FavouriteCommits {
	cloned := make(FavouriteCommits, len(f))

	for key, commits := range f {
		cloned[key] = append([]GithubCommit{}, commits...)
	}

	return cloned
}

// State is the read only view of the store exposed to the views
type State struct {
	Repos            []GithubRepository `json:"repos"`
	Commits          []GithubCommit     `json:"commits"`
	FavouriteCommits FavouriteCommits   `json:"favouriteCommits"`
	Loading          bool               `json:"loading"`
	ErrorMessage     *string            `json:"errorMessage"`
	CommitsPage      int                `json:"commitsPage"`
	CommitsPerPage   int                `json:"commitsPerPage"`
	HasMoreCommits   bool               `json:"hasMoreCommits"`
}
