package service

import (
	"net/http"
	"time"

	"github.com/Scalingo/sclng-commit-explorer/model"
	"github.com/google/go-github/v66/github"
)

func statusCode(response *http.Response, fallback int) int {
	if response == nil {
		return fallback
	}

	return response.StatusCode
}

func toUser(u *github.User) model.GithubUser {
	return model.GithubUser{
		Login:     u.GetLogin(),
		ID:        u.GetID(),
		AvatarURL: u.GetAvatarURL(),
		HTMLURL:   u.GetHTMLURL(),
	}
}

func toRepository(r *github.Repository) model.GithubRepository {
	repository := model.GithubRepository{
		ID:              r.GetID(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		HTMLURL:         r.GetHTMLURL(),
		Description:     r.Description,
		Private:         r.GetPrivate(),
		Fork:            r.GetFork(),
		Owner:           toUser(r.GetOwner()),
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		Language:        r.Language,
		DefaultBranch:   r.GetDefaultBranch(),
	}

	// licence can be null or empty for some repositories
	if r.License != nil {
		repository.License = &model.GithubLicense{
			Key:    r.License.GetKey(),
			Name:   r.License.GetName(),
			SPDXID: r.License.GetSPDXID(),
			URL:    r.License.URL,
		}
	}

	return repository
}

func toCommit(c *github.RepositoryCommit) model.GithubCommit {
	commit := model.GithubCommit{
		SHA:     c.GetSHA(),
		HTMLURL: c.GetHTMLURL(),
		Commit: model.GithubCommitInfo{
			Message: c.GetCommit().GetMessage(),
		},
	}

	if author := c.GetCommit().GetAuthor(); author != nil {
		commit.Commit.Author = model.GithubCommitAuthor{
			Name:  author.GetName(),
			Email: author.GetEmail(),
		}

		if author.Date != nil {
			commit.Commit.Author.Date = author.Date.UTC().Format(time.RFC3339)
		}
	}

	// author is only set when the commit email is linked to a github account
	if c.Author != nil {
		user := toUser(c.Author)
		commit.Author = &user
	}

	return commit
}

func toCommitDetails(c *github.RepositoryCommit) model.GithubCommitDetails {
	details := model.GithubCommitDetails{
		GithubCommit: toCommit(c),
		Files:        make([]model.GithubCommitFile, 0, len(c.Files)),
		Stats: model.GithubCommitStats{
			Total:     c.GetStats().GetTotal(),
			Additions: c.GetStats().GetAdditions(),
			Deletions: c.GetStats().GetDeletions(),
		},
	}

	for _, f := range c.Files {
		details.Files = append(details.Files, model.GithubCommitFile{
			Filename:  f.GetFilename(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Changes:   f.GetChanges(),
			Status:    f.GetStatus(),
			RawURL:    f.GetRawURL(),
			BlobURL:   f.GetBlobURL(),
			Patch:     f.Patch,
		})
	}

	return details
}
