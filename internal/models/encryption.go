package models

import (
	"github.com/jimdaga/autoposter/internal/crypto"
)

var encryptor *crypto.Encryptor

// InitEncryption initializes the credential encryptor for the models package.
// Must be called before any database operations involving AIConfiguration or
// SiteConfiguration if credentials should be sealed at rest.
func InitEncryption(encryptionKey string) error {
	enc, err := crypto.NewEncryptor(encryptionKey)
	if err != nil {
		return err
	}
	encryptor = enc
	return nil
}

// ResetEncryption disables credential sealing. Tests use it to restore the
// package default.
func ResetEncryption() {
	encryptor = nil
}

func sealField(v *string) error {
	if encryptor == nil || *v == "" {
		return nil
	}
	sealed, err := encryptor.Seal(*v)
	if err != nil {
		return err
	}
	*v = sealed
	return nil
}

func openField(v *string) error {
	if encryptor == nil || *v == "" {
		return nil
	}
	plain, err := encryptor.Open(*v)
	if err != nil {
		return err
	}
	*v = plain
	return nil
}
