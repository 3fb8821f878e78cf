package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

type HashAlgorithm string

const (
	Argon2id HashAlgorithm = "argon2id"

	// Hashes carried over from the old SQLite database.
	Bcrypt HashAlgorithm = "bcrypt"
)

const saltLength = 16
const keyLength = 64

type HashedPassword struct {
	Algorithm  HashAlgorithm
	AlgoConfig string // arbitrary info describing the hash parameters (e.g. work factor)

	// Stored in a form that can go straight into the database (base64 for
	// argon2id, the full modular crypt string for bcrypt).
	Salt string
	Hash string
}

func ParsePasswordString(s string) (HashedPassword, error) {
	if strings.HasPrefix(s, "$2") {
		// A bare bcrypt string, e.g. $2b$10$...
		return HashedPassword{Algorithm: Bcrypt, Hash: s}, nil
	}

	pieces := strings.SplitN(s, "$", 4)
	if len(pieces) < 4 {
		return HashedPassword{}, oops.New(nil, "unrecognized password string format")
	}

	return HashedPassword{
		Algorithm:  HashAlgorithm(pieces[0]),
		AlgoConfig: pieces[1],
		Salt:       pieces[2],
		Hash:       pieces[3],
	}, nil
}

func (p HashedPassword) String() string {
	return fmt.Sprintf("%s$%s$%s$%s", p.Algorithm, p.AlgoConfig, p.Salt, p.Hash)
}

func (p HashedPassword) IsOutdated() bool {
	return p.Algorithm != Argon2id
}

// Wraps a bcrypt hash from the legacy database so it can be stored as-is.
func LegacyBcryptPassword(bcryptHash string) (HashedPassword, error) {
	cost, err := bcrypt.Cost([]byte(bcryptHash))
	if err != nil {
		return HashedPassword{}, oops.New(err, "not a bcrypt hash")
	}
	return HashedPassword{
		Algorithm:  Bcrypt,
		AlgoConfig: strconv.Itoa(cost),
		Hash:       bcryptHash,
	}, nil
}

type Argon2idConfig struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
}

func ParseArgon2idConfig(cfg string) (Argon2idConfig, error) {
	parts := strings.Split(cfg, ",")
	if len(parts) != 4 {
		return Argon2idConfig{}, oops.New(nil, "expected 4 parts in Argon2id config, got %d", len(parts))
	}

	var values [4]uint64
	for i, part := range parts {
		_, valueStr, found := strings.Cut(part, "=")
		if !found {
			return Argon2idConfig{}, oops.New(nil, "malformed Argon2id config part '%s'", part)
		}
		bits := 32
		if i == 2 {
			bits = 8
		}
		v, err := strconv.ParseUint(valueStr, 10, bits)
		if err != nil {
			return Argon2idConfig{}, oops.New(err, "failed to parse Argon2id config part '%s'", part)
		}
		values[i] = v
	}

	return Argon2idConfig{
		Time:      uint32(values[0]),
		Memory:    uint32(values[1]),
		Threads:   uint8(values[2]),
		KeyLength: uint32(values[3]),
	}, nil
}

func (c Argon2idConfig) String() string {
	return fmt.Sprintf("t=%v,m=%v,p=%v,l=%v", c.Time, c.Memory, c.Threads, c.KeyLength)
}

func CheckPassword(password string, hashedPassword HashedPassword) (bool, error) {
	switch hashedPassword.Algorithm {
	case Argon2id:
		cfg, err := ParseArgon2idConfig(hashedPassword.AlgoConfig)
		if err != nil {
			return false, err
		}

		salt, err := base64.StdEncoding.DecodeString(hashedPassword.Salt)
		if err != nil {
			return false, oops.New(err, "failed to decode salt")
		}

		newHash := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Threads, cfg.KeyLength)
		newHashEnc := base64.StdEncoding.EncodeToString(newHash)

		return subtle.ConstantTimeCompare([]byte(newHashEnc), []byte(hashedPassword.Hash)) == 1, nil
	case Bcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(hashedPassword.Hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		} else if err != nil {
			return false, oops.New(err, "failed to check bcrypt password")
		}
		return true, nil
	default:
		return false, oops.New(nil, "unrecognized password hash algorithm: %s", hashedPassword.Algorithm)
	}
}

// Hashes a password with argon2id and a fresh random salt.
func HashPassword(password string) HashedPassword {
	// OWASP recommendations as of March 2021.
	// https://cheatsheetseries.owasp.org/cheatsheets/Password_Storage_Cheat_Sheet.html

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		panic(oops.New(err, "failed to generate password salt"))
	}
	saltEnc := base64.StdEncoding.EncodeToString(salt)

	cfg := Argon2idConfig{
		Time:      1,
		Memory:    40 * 1024, // in KiB
		Threads:   1,
		KeyLength: keyLength,
	}

	key := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Threads, cfg.KeyLength)
	keyEnc := base64.StdEncoding.EncodeToString(key)

	return HashedPassword{
		Algorithm:  Argon2id,
		AlgoConfig: cfg.String(),
		Salt:       saltEnc,
		Hash:       keyEnc,
	}
}

var ErrUserDoesNotExist = errors.New("user does not exist")

func UpdatePassword(ctx context.Context, conn db.ConnOrTx, userID int, hp HashedPassword) error {
	tag, err := conn.Exec(ctx, "UPDATE blog_user SET password = $1 WHERE id = $2", hp.String(), userID)
	if err != nil {
		return oops.New(err, "failed to update password")
	} else if tag.RowsAffected() < 1 {
		return ErrUserDoesNotExist
	}

	return nil
}

func SetPassword(ctx context.Context, conn db.ConnOrTx, userID int, password string) error {
	return UpdatePassword(ctx, conn, userID, HashPassword(password))
}
