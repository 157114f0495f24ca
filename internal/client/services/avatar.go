package services

import (
	"context"
	"fmt"

	"profilekeeper/internal/common"
	"profilekeeper/internal/netx"
)

// uploadToPresignedURL is a seam for tests.
var uploadToPresignedURL = netx.UploadToPresignedURL

// UploadAvatar uploads the image bytes through a presigned URL, registers the
// resulting object key with the server and mirrors it into the local cache.
// Returns the stored object key.
func (s *SessionService) UploadAvatar(ctx context.Context, data []byte) (string, error) {
	st := s.store.Current()
	if !st.Authenticated || st.UserID == "" {
		return "", common.ErrUnauthorized
	}

	pu, err := s.client.AvatarUploadURL(ctx)
	if err != nil {
		return "", err
	}

	if err := uploadToPresignedURL(ctx, pu.URL, data); err != nil {
		return "", fmt.Errorf("avatar upload: %w", err)
	}

	if err := s.client.SetAvatar(ctx, pu.Key); err != nil {
		return "", err
	}

	if rec, err := s.cache.FindByID(ctx, st.UserID); err == nil && rec != nil {
		rec.AvatarRef = pu.Key
		if err := s.cache.Upsert(ctx, rec); err != nil {
			return "", err
		}
	}

	s.log.Info(ctx, "avatar updated", "user_id", st.UserID, "key", pu.Key)
	return pu.Key, nil
}

// AvatarURL resolves a short-lived download URL for the current user's
// avatar. Returns an empty string when the user has no avatar.
func (s *SessionService) AvatarURL(ctx context.Context) (string, error) {
	rec, err := s.GetCurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", common.ErrUnauthorized
	}
	if rec.AvatarRef == "" {
		return "", nil
	}
	pu, err := s.client.AvatarDownloadURL(ctx, rec.AvatarRef)
	if err != nil {
		return "", err
	}
	return pu.URL, nil
}
