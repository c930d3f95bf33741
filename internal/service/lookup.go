package service

import (
	"context"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

func loadUser(ctx context.Context, st store.Store, userID string) (*domain.User, error) {
	u, err := st.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return u, nil
}

func loadBook(ctx context.Context, st store.Store, bookID string) (*domain.Book, error) {
	b, err := st.GetBook(ctx, bookID)
	if err != nil {
		return nil, storeError(err, "book")
	}
	return b, nil
}
