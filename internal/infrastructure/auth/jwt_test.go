package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/domain"
)

func testIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return NewTokenIssuer(key, "praxis-test", "praxis-test")
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	issuer := testIssuer(t)
	userID := domain.NewUserID(uuid.New())
	orgID := domain.NewOrganizationID(uuid.New())
	identity := domain.Identity{
		UserID:         userID,
		Role:           domain.RoleClientAdmin,
		OrganizationID: orgID,
		ActorID:        userID,
	}

	token, err := issuer.IssueAccessToken(identity, 60)
	if err != nil {
		t.Fatal(err)
	}
	got, err := issuer.ValidateAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != userID || got.Role != domain.RoleClientAdmin || got.OrganizationID != orgID {
		t.Fatalf("round trip lost identity fields: %+v", got)
	}
	if got.Impersonating() {
		t.Fatal("plain token must not validate as an overlay")
	}
}

func TestOverlayTokenCarriesActor(t *testing.T) {
	issuer := testIssuer(t)
	actorID := domain.NewUserID(uuid.New())
	targetID := domain.NewUserID(uuid.New())
	overlay := domain.Identity{
		UserID:         targetID,
		Role:           domain.RoleFrontDesk,
		OrganizationID: domain.NewOrganizationID(uuid.New()),
		ActorID:        actorID,
	}

	token, err := issuer.IssueAccessToken(overlay, 60)
	if err != nil {
		t.Fatal(err)
	}
	got, err := issuer.ValidateAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Impersonating() {
		t.Fatal("overlay token must validate as an overlay")
	}
	if got.ActorID != actorID || got.UserID != targetID {
		t.Fatalf("overlay lost actor/target: %+v", got)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuer := testIssuer(t)
	userID := domain.NewUserID(uuid.New())
	token, err := issuer.IssueAccessToken(domain.Identity{
		UserID:  userID,
		Role:    domain.RoleTechnician,
		ActorID: userID,
	}, -60)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.ValidateAccessToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestValidateRejectsForeignKey(t *testing.T) {
	issuerA := testIssuer(t)
	issuerB := testIssuer(t)
	userID := domain.NewUserID(uuid.New())
	token, err := issuerA.IssueAccessToken(domain.Identity{
		UserID:  userID,
		Role:    domain.RoleTechnician,
		ActorID: userID,
	}, 60)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuerB.ValidateAccessToken(token); err == nil {
		t.Fatal("token signed with another key must be rejected")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := testIssuer(t)
	if _, err := issuer.ValidateAccessToken("not.a.token"); err == nil {
		t.Fatal("garbage input must be rejected")
	}
}
