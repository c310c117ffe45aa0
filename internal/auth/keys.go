package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

const (
	encryptionKeyIterations = 100_000
	encryptionKeyLength     = 32
	encryptionSaltSuffix    = ":PBKDF2-salt"
)

// NetworkMessage is the fixed text every wallet signs to access the network.
func NetworkMessage(address string) string {
	return "\nThis signature on this message will be used to access the INTMAX network. \nYour address: " +
		address +
		"\nCaution: Please make sure that the domain you are connected to is correct."
}

// SecuritySeed is sha256 of the network signature, 0x-hex encoded.
func SecuritySeed(networkSig []byte) string {
	sum := sha256.Sum256(networkSig)
	return hexutil.Encode(sum[:])
}

// HashedNetworkSignature is the value the vault stores at first login: sha256(sha256(sig)).
func HashedNetworkSignature(networkSig []byte) string {
	inner := sha256.Sum256(networkSig)
	outer := sha256.Sum256(inner[:])
	return hexutil.Encode(outer[:])
}

// Entropy binds the network signature to the vault-issued hashed signature.
func Entropy(networkSig []byte, hashedSignature string) ([]byte, error) {
	hashed, err := base64.StdEncoding.DecodeString(hashedSignature)
	if err != nil {
		return nil, fmt.Errorf("decode hashed signature: %w", err)
	}
	combined := make([]byte, 0, len(networkSig)+len(hashed))
	combined = append(combined, networkSig...)
	combined = append(combined, hashed...)
	sum := sha256.Sum256(combined)
	return sum[:], nil
}

// HDKeyFromEntropy derives m/44'/60'/0'/0/0 from the BIP-39 mnemonic of entropy.
// The key is returned 0x-hex encoded.
func HDKeyFromEntropy(entropy []byte) (string, error) {
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("mnemonic from entropy: %w", err)
	}
	seed := bip39.NewSeed(mnemonic, "")

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return "", fmt.Errorf("master key: %w", err)
	}
	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	}
	for _, idx := range path {
		if key, err = key.Derive(idx); err != nil {
			return "", fmt.Errorf("derive child %d: %w", idx, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return "", fmt.Errorf("extract private key: %w", err)
	}
	return hexutil.Encode(priv.Serialize()), nil
}

// EncryptionKey derives the local data-encryption key from the network signature and login nonce.
// The result is base64 encoded.
func EncryptionKey(networkSig []byte, nonce int64) string {
	password := sha256.Sum256(networkSig)

	salt := make([]byte, 16)
	binary.LittleEndian.PutUint32(salt, uint32(nonce))
	copy(salt[4:], encryptionSaltSuffix)

	key := pbkdf2.Key(password[:], salt, encryptionKeyIterations, encryptionKeyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(key)
}
