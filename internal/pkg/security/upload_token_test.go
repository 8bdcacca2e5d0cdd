package security

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestUploadTokenRoundTrip(t *testing.T) {
	token, err := GenerateUploadToken(7, 42, 10*1024*1024, 15*time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateUploadToken: %v", err)
	}

	claims, err := VerifyUploadToken(token, testSecret)
	if err != nil {
		t.Fatalf("VerifyUploadToken: %v", err)
	}
	if claims.UserID != 7 || claims.PropertyID != 42 {
		t.Fatalf("claims = %+v, want user 7 property 42", claims)
	}
	if claims.MaxBytes != 10*1024*1024 {
		t.Fatalf("max bytes = %d", claims.MaxBytes)
	}
}

func TestUploadTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateUploadToken(7, 42, 1024, 15*time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateUploadToken: %v", err)
	}

	if _, err := VerifyUploadToken(token, "other-secret"); err == nil {
		t.Fatalf("token verified with the wrong secret")
	}
}

func TestUploadTokenRejectsTamperedPayload(t *testing.T) {
	token, err := GenerateUploadToken(7, 42, 1024, 15*time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateUploadToken: %v", err)
	}

	forged, err := GenerateUploadToken(8, 42, 1024, 15*time.Minute, "attacker-secret")
	if err != nil {
		t.Fatalf("GenerateUploadToken: %v", err)
	}

	// Signed payload from one token, signature from another.
	spliced := strings.SplitN(forged, ".", 2)[0] + "." + strings.SplitN(token, ".", 2)[1]
	if _, err := VerifyUploadToken(spliced, testSecret); err == nil {
		t.Fatalf("spliced token verified")
	}
}

func TestUploadTokenExpires(t *testing.T) {
	token, err := GenerateUploadToken(7, 42, 1024, -time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateUploadToken: %v", err)
	}

	if _, err := VerifyUploadToken(token, testSecret); err == nil {
		t.Fatalf("expired token verified")
	}
}

func TestUploadTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateUploadToken(7, 42, 1024, time.Minute, ""); err == nil {
		t.Fatalf("token generated without a secret")
	}
	if _, err := VerifyUploadToken("a.b", ""); err == nil {
		t.Fatalf("token verified without a secret")
	}
}

func TestUploadTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "no-dot", "!!!.###"} {
		if _, err := VerifyUploadToken(token, testSecret); err == nil {
			t.Fatalf("garbage token %q verified", token)
		}
	}
}
