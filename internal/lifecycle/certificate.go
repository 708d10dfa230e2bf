package lifecycle

import (
	"context"
	"errors"
)

// Certificates lists the actor's certificates, newest first.
func (s *Service) Certificates(ctx context.Context, actor Actor) ([]CertificateView, error) {
	if actor.ID == "" {
		return nil, ErrForbidden
	}
	return s.store.ListCertificates(ctx, actor.ID)
}

// VerifyCertificate looks a certificate up by id for public verification.
func (s *Service) VerifyCertificate(ctx context.Context, id string) (CertificateView, error) {
	cert, err := s.store.GetCertificate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return CertificateView{}, ErrCertificateNotFound
	}
	return cert, err
}
