package persistence

import (
	"errors"

	"github.com/Scalingo/sclng-commit-explorer/model"
	log "github.com/sirupsen/logrus"
)

// Adapter restore favourites on startup and write them back after each change
// it implements store.FavouritesObserver
type Adapter struct {
	storage Storage
	key     string
}

func NewAdapter(storage Storage) *Adapter {
	return &Adapter{storage: storage, key: StorageKey}
}

// Restore read the last snapshot
// a missing or corrupted snapshot gives empty favourites, it never fails
func (a *Adapter) Restore() model.FavouriteCommits {
	data, err := a.storage.Read(a.key)

	if errors.Is(err, ErrNotFound) {
		log.WithField("key", a.key).Debug("no favourites snapshot found. starting with empty favourites")
		return model.FavouriteCommits{}
	}

	if err != nil {
		log.WithError(err).WithField("key", a.key).Warning("unable to read favourites snapshot. starting with empty favourites")
		return model.FavouriteCommits{}
	}

	favourites, err := Deserialize(data)

	if err != nil {
		log.WithError(err).WithField("key", a.key).Warning("corrupted favourites snapshot. starting with empty favourites")
		return model.FavouriteCommits{}
	}

	log.WithField("repositories", len(favourites)).Info("favourites restored from storage")
	return favourites
}

// FavouritesChanged overwrite the snapshot with favourites
func (a *Adapter) FavouritesChanged(favourites model.FavouriteCommits) {
	data, err := Serialize(favourites)

	if err != nil {
		log.WithError(err).Error("unable to serialize favourites")
		return
	}

	if err := a.storage.Write(a.key, data); err != nil {
		log.WithError(err).WithField("key", a.key).Error("unable to write favourites snapshot")
	}
}
