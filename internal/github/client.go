// Package github opens pull requests that refresh the checked-in
// combinations file after a catalog sweep finds drift.
package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
)

// Sentinel errors for GitHub operations.
var (
	ErrEmptyToken   = errors.New("github token cannot be empty")
	ErrInvalidRepo  = errors.New("repository must be in format 'owner/repo'")
	ErrEmptyContent = errors.New("file content cannot be empty")
)

// Client wraps the GitHub API client for pull-request operations.
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient creates a new GitHub API client for the specified repository.
// Token should be a personal access token or GitHub Actions token with repo
// permissions. Repository must be in the format "owner/repo".
func NewClient(token, repository string) (*Client, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(nil).WithAuthToken(token)

	return &Client{
		client: client,
		owner:  owner,
		repo:   repo,
	}, nil
}

// UpdateRequest describes one combinations refresh: the branch to create,
// the file to replace on it, and the pull request to open.
type UpdateRequest struct {
	BaseBranch string // default branch when empty
	Branch     string
	FilePath   string
	Content    []byte
	CommitMsg  string
	Title      string
	Body       string
}

// OpenUpdatePR creates a branch off the base, commits the new file content,
// and opens a pull request. Returns the pull request HTML URL.
func (c *Client) OpenUpdatePR(ctx context.Context, req UpdateRequest) (string, error) {
	if req.Branch == "" {
		return "", fmt.Errorf("branch name cannot be empty")
	}
	if req.FilePath == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	if len(req.Content) == 0 {
		return "", ErrEmptyContent
	}

	base := req.BaseBranch
	if base == "" {
		repo, _, err := c.client.Repositories.Get(ctx, c.owner, c.repo)
		if err != nil {
			return "", fmt.Errorf("failed to get repository: %w", err)
		}
		base = repo.GetDefaultBranch()
	}

	if err := c.createBranch(ctx, base, req.Branch); err != nil {
		return "", err
	}
	if err := c.commitFile(ctx, req.Branch, req.FilePath, req.Content, req.CommitMsg); err != nil {
		return "", err
	}

	pr, _, err := c.client.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.String(req.Title),
		Head:  github.String(req.Branch),
		Base:  github.String(base),
		Body:  github.String(req.Body),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create pull request: %w", err)
	}
	return pr.GetHTMLURL(), nil
}

// createBranch points a new ref at the head of the base branch.
func (c *Client) createBranch(ctx context.Context, base, branch string) error {
	baseRef, _, err := c.client.Git.GetRef(ctx, c.owner, c.repo, "heads/"+base)
	if err != nil {
		return fmt.Errorf("failed to get ref for branch %s: %w", base, err)
	}

	_, _, err = c.client.Git.CreateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: baseRef.Object.SHA},
	})
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

// commitFile creates or updates one file on a branch.
func (c *Client) commitFile(ctx context.Context, branch, path string, content []byte, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(branch),
	}

	// An existing file needs its blob SHA to be replaced.
	existing, _, resp, err := c.client.Repositories.GetContents(ctx, c.owner, c.repo, path,
		&github.RepositoryContentGetOptions{Ref: branch})
	if err == nil && existing != nil {
		opts.SHA = existing.SHA
	} else if resp == nil || resp.StatusCode != 404 {
		return fmt.Errorf("failed to check existing file %s: %w", path, err)
	}

	if opts.SHA != nil {
		_, _, err = c.client.Repositories.UpdateFile(ctx, c.owner, c.repo, path, opts)
	} else {
		_, _, err = c.client.Repositories.CreateFile(ctx, c.owner, c.repo, path, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to commit file %s: %w", path, err)
	}
	return nil
}

// parseRepository splits a repository string into owner and repo.
// Returns an error if the format is invalid.
func parseRepository(repository string) (owner, repo string, err error) {
	if repository == "" {
		return "", "", ErrInvalidRepo
	}

	parts := strings.Split(repository, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: got %s", ErrInvalidRepo, repository)
	}

	owner = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w: owner or repo is empty", ErrInvalidRepo)
	}

	return owner, repo, nil
}
