package persistence

import (
	"encoding/json"

	"github.com/Scalingo/sclng-commit-explorer/model"
)

// StorageKey is the name of the record holding the favourites snapshot
const StorageKey = "github_favourites"

// Snapshot is the persisted subset of the store state
// only favourites survive a restart, everything else is loaded again from github
type Snapshot struct {
	FavouriteCommits model.FavouriteCommits `json:"favouriteCommits"`
}

// Serialize encode favourites into a snapshot
func Serialize(favourites model.FavouriteCommits) ([]byte, error) {
	if favourites == nil {
		favourites = model.FavouriteCommits{}
	}

	return json.Marshal(Snapshot{FavouriteCommits: favourites})
}

// Deserialize decode a snapshot written by Serialize
func Deserialize(data []byte) (model.FavouriteCommits, error) {
	var snapshot Snapshot

	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}

	if snapshot.FavouriteCommits == nil {
		return model.FavouriteCommits{}, nil
	}

	return snapshot.FavouriteCommits, nil
}
