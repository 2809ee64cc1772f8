package state

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

var (
	balancePrefix     = []byte("balance:")
	tokenSupplyPrefix = []byte("token/supply/")
	paramPrefix       = []byte("params/")

	claimRecordPrefix = []byte("hatch/claimed/")
	unlockListPrefix  = []byte("hatch/unlocks/")
	operatorPrefix    = []byte("hatch/operator/")

	stakeQueuePrefix = []byte("staking/queue/")
	productPrefix    = []byte("store/product/")

	ownerKey         = ethcrypto.Keccak256([]byte("system/owner"))
	genesisMarkerKey = ethcrypto.Keccak256([]byte("system/genesis"))
	treasuryKey      = ethcrypto.Keccak256([]byte("store/treasury"))
	hatchConfigKey   = ethcrypto.Keccak256([]byte("hatch/config"))
	stakingConfigKey = ethcrypto.Keccak256([]byte("staking/config"))
)

func prefixedKey(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}
