package amm

import (
	"nftamm/core/types"
	"nftamm/native/token"
)

type tokenKey struct {
	owner [20]byte
	mint  [32]byte
}

// staging buffers every effect of one settlement and flushes to the backing
// state only after the whole sequence has succeeded. Discarding the staging
// on error is what makes a fulfillment all-or-nothing: there is no
// compensating-transaction path.
type staging struct {
	base engineState

	accounts  map[[20]byte]*types.Account
	tokens    map[tokenKey]*token.Account
	tokenGone map[tokenKey]bool
	pools     map[[20]byte]*Pool
	poolGone  map[[20]byte]bool
}

func newStaging(base engineState) *staging {
	return &staging{
		base:      base,
		accounts:  make(map[[20]byte]*types.Account),
		tokens:    make(map[tokenKey]*token.Account),
		tokenGone: make(map[tokenKey]bool),
		pools:     make(map[[20]byte]*Pool),
		poolGone:  make(map[[20]byte]bool),
	}
}

func (s *staging) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := s.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	acc, err := s.base.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return acc.Clone(), nil
}

func (s *staging) PutAccount(addr [20]byte, account *types.Account) error {
	s.accounts[addr] = account.Clone()
	return nil
}

func (s *staging) TokenGet(owner [20]byte, mint [32]byte) (*token.Account, bool, error) {
	key := tokenKey{owner: owner, mint: mint}
	if s.tokenGone[key] {
		return nil, false, nil
	}
	if acct, ok := s.tokens[key]; ok {
		return acct.Clone(), true, nil
	}
	acct, ok, err := s.base.TokenGet(owner, mint)
	if err != nil || !ok {
		return nil, ok, err
	}
	return acct.Clone(), true, nil
}

func (s *staging) TokenPut(acct *token.Account) error {
	key := tokenKey{owner: acct.Owner, mint: acct.Mint}
	delete(s.tokenGone, key)
	s.tokens[key] = acct.Clone()
	return nil
}

func (s *staging) TokenDelete(owner [20]byte, mint [32]byte) error {
	key := tokenKey{owner: owner, mint: mint}
	delete(s.tokens, key)
	s.tokenGone[key] = true
	return nil
}

func (s *staging) PoolGet(id [20]byte) (*Pool, bool, error) {
	if s.poolGone[id] {
		return nil, false, nil
	}
	if pool, ok := s.pools[id]; ok {
		return pool.Clone(), true, nil
	}
	pool, ok, err := s.base.PoolGet(id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return pool.Clone(), true, nil
}

func (s *staging) PoolPut(pool *Pool) error {
	id := pool.Address()
	delete(s.poolGone, id)
	s.pools[id] = pool.Clone()
	return nil
}

func (s *staging) PoolDelete(id [20]byte) error {
	delete(s.pools, id)
	s.poolGone[id] = true
	return nil
}

// Commit flushes the staged effects to the backing state.
func (s *staging) Commit() error {
	for addr, acc := range s.accounts {
		if err := s.base.PutAccount(addr, acc); err != nil {
			return err
		}
	}
	for _, acct := range s.tokens {
		if err := s.base.TokenPut(acct); err != nil {
			return err
		}
	}
	for key := range s.tokenGone {
		if err := s.base.TokenDelete(key.owner, key.mint); err != nil {
			return err
		}
	}
	for _, pool := range s.pools {
		if err := s.base.PoolPut(pool); err != nil {
			return err
		}
	}
	for id := range s.poolGone {
		if err := s.base.PoolDelete(id); err != nil {
			return err
		}
	}
	return nil
}
