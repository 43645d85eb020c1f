package p2p

import (
	"math/big"

	"github.com/solheim-systems/simplecoin/internal/keygen"
	"github.com/solheim-systems/simplecoin/pkg/walletkey"
)

// Precomputed RSA-style key pairs, reused across this package's tests to
// avoid paying prime-search cost in every test run.
var (
	nodeAModulus, _ = new(big.Int).SetString("188863072133939186552223888142388787393750445093705808527939117276601379940080297302469800303034923826610613714519894144646149271941272879058632919825494121042719001019701317", 10)
	nodeAExponent   = big.NewInt(65537)
	nodeADExponent, _ = new(big.Int).SetString("42742528432650045240743163540105749341961130378714993852120069387468936131822801922428843698968457813204457280549174716994476176839176274276115584416284567128028175535311873", 10)

	nodeBModulus, _ = new(big.Int).SetString("159406611382894938288945984011124060954600744471175281602208954040971063083704068255831023917658267517775748412460840469299958439755446379025555529165702029190689933588258229", 10)
	nodeBExponent   = big.NewInt(65537)
	nodeBDExponent, _ = new(big.Int).SetString("47259875477511156307951545986788234193629437799638917276209163938173363988531212081889333871815655753376492821846404422527491479466304504580177619505864843492762533802167113", 10)

	nodeAPublic  = walletkey.CompositeKey{Exponent: nodeAExponent, Modulus: nodeAModulus}
	nodeAPrivate = walletkey.CompositeKey{Exponent: nodeADExponent, Modulus: nodeAModulus}

	nodeBPublic  = walletkey.CompositeKey{Exponent: nodeBExponent, Modulus: nodeBModulus}
	nodeBPrivate = walletkey.CompositeKey{Exponent: nodeBDExponent, Modulus: nodeBModulus}

	nodeCModulus, _ = new(big.Int).SetString("184316862780166861372425469454988145554563748545234738369955976728552252274377705820671077506305190337593906738710823335444723424169009855384894525771657510076470413056824987", 10)
	nodeCExponent   = big.NewInt(65537)
	nodeCDExponent, _ = new(big.Int).SetString("154769691558285587503027999596830075194366505122187663262539441160702488592875467736046849398060531294494227843494718697449835094847213359611384575430471905865166201029965713", 10)

	nodeCPublic  = walletkey.CompositeKey{Exponent: nodeCExponent, Modulus: nodeCModulus}
	nodeCPrivate = walletkey.CompositeKey{Exponent: nodeCDExponent, Modulus: nodeCModulus}
)

func nodeAKeyPair() keygen.KeyPair {
	return keygen.KeyPair{Public: nodeAPublic, Private: nodeAPrivate}
}

func nodeBKeyPair() keygen.KeyPair {
	return keygen.KeyPair{Public: nodeBPublic, Private: nodeBPrivate}
}

func nodeCKeyPair() keygen.KeyPair {
	return keygen.KeyPair{Public: nodeCPublic, Private: nodeCPrivate}
}
