package model

type GithubUser struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type GithubLicense struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	SPDXID string  `json:"spdx_id"`
	URL    *string `json:"url"` // github returns null for some licences
}

type GithubRepository struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	FullName        string         `json:"full_name"`
	HTMLURL         string         `json:"html_url"`
	Description     *string        `json:"description"`
	Private         bool           `json:"private"`
	Fork            bool           `json:"fork"`
	Owner           GithubUser     `json:"owner"`
	StargazersCount int            `json:"stargazers_count"`
	ForksCount      int            `json:"forks_count"`
	Language        *string        `json:"language"`
	License         *GithubLicense `json:"license,omitempty"` // licence can be nil for some repositories without licence
	DefaultBranch   string         `json:"default_branch"`
}
