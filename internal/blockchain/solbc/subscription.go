// internal/blockchain/solbc/subscription.go
package solbc

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
)

// accountStream владеет собственным ws-соединением, поэтому Close
// освобождает и подписку, и соединение.
//
// ws.AccountSubscription.Recv не принимает контекст, поэтому его вызывает
// отдельный reader, а отмена закрывает соединение: клиент solana-go отдаёт
// ошибку чтения всем подпискам, и reader завершается. Unsubscribe не
// вызывается: он закрывает каналы подписки, и ожидающий Recv паникует на
// nil-результате.
type accountStream struct {
	address solana.PublicKey
	conn    *ws.Client
	sub     *ws.AccountSubscription
	logger  *zap.Logger
	onClose func()

	results chan accountResult
	done    chan struct{}

	closeOnce sync.Once
}

type accountResult struct {
	res *ws.AccountResult
	err error
}

// SubscribeAccount подписывается на изменения аккаунта через WebSocket.
// Поток закрывается при отмене ctx или вызове Close.
func (c *Client) SubscribeAccount(ctx context.Context, address solana.PublicKey, commitment rpc.CommitmentType) (blockchain.AccountStream, error) {
	if c.wsURL == "" {
		return nil, &RPCError{Err: fmt.Errorf("websocket url is not configured"), Endpoint: c.rpcURL, Method: "accountSubscribe"}
	}

	conn, err := call(ctx, c, "wsConnect", func(ctx context.Context) (*ws.Client, error) {
		return ws.Connect(ctx, c.wsURL)
	})
	if err != nil {
		return nil, err
	}

	sub, err := conn.AccountSubscribeWithOpts(address, commitment, solana.EncodingBase64)
	if err != nil {
		conn.Close()
		return nil, &RPCError{Err: err, Endpoint: c.wsURL, Method: "accountSubscribe"}
	}

	c.metrics.AddWebsocketConnections("account", 1)
	c.logger.Debug("Account subscription opened", zap.String("address", address.String()))

	s := &accountStream{
		address: address,
		conn:    conn,
		sub:     sub,
		logger:  c.logger,
		onClose: func() { c.metrics.AddWebsocketConnections("account", -1) },
		results: make(chan accountResult),
		done:    make(chan struct{}),
	}
	go s.read()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

func (s *accountStream) read() {
	for {
		res, err := s.sub.Recv()
		if err == nil && res == nil {
			err = blockchain.ErrStreamClosed
		}
		select {
		case s.results <- accountResult{res: res, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *accountStream) Recv(ctx context.Context) (*blockchain.AccountRecord, error) {
	select {
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	case <-s.done:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, blockchain.ErrStreamClosed
	case r := <-s.results:
		if r.err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.Close()
			return nil, fmt.Errorf("%w: %v", blockchain.ErrStreamClosed, r.err)
		}
		return toRecord(s.address, r.res.Context.Slot, &r.res.Value.Account), nil
	}
}

func (s *accountStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		s.onClose()
		s.logger.Debug("Account subscription closed", zap.String("address", s.address.String()))
	})
}
