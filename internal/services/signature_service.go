package services

import (
	"errors"
	"fmt"

	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/ayoubbns/document-control-api/internal/signing"
	"gorm.io/gorm"
)

var ErrSignatureNotFound = errors.New("signature not found")

// SignatureVerification is the result of recomputing a stored signature.
type SignatureVerification struct {
	Signature *models.ElectronicSignature `json:"signature"`
	Valid     bool                        `json:"valid"`
}

// SignatureService reads the append-only signature ledger. Signatures are
// written exclusively by WorkflowService.ApproveAndSign; this service only
// lists and verifies them.
type SignatureService struct {
	signatures repository.SignatureRepository
	signer     *signing.Signer
}

// NewSignatureService creates a new SignatureService
func NewSignatureService(signatures repository.SignatureRepository, signer *signing.Signer) *SignatureService {
	return &SignatureService{signatures: signatures, signer: signer}
}

// ListByWorkflow returns the signatures of a workflow, oldest first.
func (s *SignatureService) ListByWorkflow(workflowID uint64) ([]models.ElectronicSignature, error) {
	return s.signatures.ListByWorkflow(workflowID)
}

// Verify recomputes the keyed hash from the stored signing inputs and compares
// it against the stored hash. A mismatch means the row was tampered with or
// the signing key changed.
func (s *SignatureService) Verify(signatureID uint64) (*SignatureVerification, error) {
	sig, err := s.signatures.FindByID(signatureID, "SignedBy", "Workflow")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignatureNotFound
		}
		return nil, fmt.Errorf("failed to find signature: %w", err)
	}
	valid := s.signer.Verify(sig.WorkflowID, sig.SignedByID, sig.SignedAt, sig.Nonce, sig.SignatureHash)
	return &SignatureVerification{Signature: sig, Valid: valid}, nil
}
