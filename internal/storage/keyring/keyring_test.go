package keyring

import (
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestPutAndGet(t *testing.T) {
	gokeyring.MockInit()
	s := New("")

	if err := s.Put("token", "aaaaaa.bbbbbb.cccccc"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	v, found, err := s.Get("token")
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if v != "aaaaaa.bbbbbb.cccccc" {
		t.Errorf("Get() = %q", v)
	}
}

func TestGetNotFound(t *testing.T) {
	gokeyring.MockInit()
	s := New("work")

	_, found, err := s.Get("token")
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if found {
		t.Fatal("Get() should report missing key")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	gokeyring.MockInit()
	s := New("")

	if err := s.Put("auth_user", "{}"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("auth_user"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := s.Delete("auth_user"); err != nil {
		t.Fatalf("second Delete() failed: %v", err)
	}
	if _, found, _ := s.Get("auth_user"); found {
		t.Fatal("key should be gone")
	}
}

func TestProfilesAreSeparate(t *testing.T) {
	gokeyring.MockInit()

	if err := New("a").Put("token", "x"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := New("b").Get("token"); found {
		t.Fatal("profile b should not see profile a's token")
	}
}
