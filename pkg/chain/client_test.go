package chain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solsweep/pkg/types"
)

type rpcRequest struct {
	ID     interface{}       `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func decodeRPCRequest(t *testing.T, r *http.Request) rpcRequest {
	t.Helper()
	var req rpcRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func writeRPCResult(w http.ResponseWriter, id, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func writeRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]interface{}{"code": code, "message": message},
	})
}

func statusesResult(statuses ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 100},
		"value":   statuses,
	}
}

// newTestClient points a Client at the stub with intervals short enough for
// tests.
func newTestClient(serverURL string) *Client {
	c := NewFromRPC(rpc.New(serverURL), "confirmed")
	c.pollInterval = time.Millisecond
	return c
}

func signedTestTransaction(t *testing.T) *solana.Transaction {
	t.Helper()

	wallet := solana.NewWallet()
	var blockhash solana.Hash
	copy(blockhash[:], "test-anchor")

	ix := system.NewTransferInstruction(1, wallet.PublicKey(), wallet.PublicKey()).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(wallet.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return &wallet.PrivateKey
	})
	require.NoError(t, err)
	return tx
}

func TestLatestAnchor(t *testing.T) {
	blockhash := solana.Hash{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		assert.Equal(t, "getLatestBlockhash", req.Method)
		writeRPCResult(w, req.ID, map[string]interface{}{
			"context": map[string]interface{}{"slot": 100},
			"value": map[string]interface{}{
				"blockhash":            blockhash.String(),
				"lastValidBlockHeight": 500,
			},
		})
	}))
	defer server.Close()

	anchor, err := newTestClient(server.URL).LatestAnchor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, blockhash, anchor.Blockhash)
	assert.Equal(t, uint64(500), anchor.LastValidBlockHeight)
}

func TestLatestAnchor_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		writeRPCError(w, req.ID, -32005, "node is behind")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).LatestAnchor(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.KindServiceError, types.KindOf(err))
	assert.True(t, types.KindOf(err).Retryable())
}

func TestSubmit(t *testing.T) {
	sig := solana.Signature{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		assert.Equal(t, "sendTransaction", req.Method)

		require.Len(t, req.Params, 2)
		var opts map[string]interface{}
		require.NoError(t, json.Unmarshal(req.Params[1], &opts))
		assert.Equal(t, true, opts["skipPreflight"])

		writeRPCResult(w, req.ID, sig.String())
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).Submit(context.Background(), signedTestTransaction(t))
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}

func TestSubmit_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		writeRPCError(w, req.ID, -32002, "transaction simulation failed")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Submit(context.Background(), signedTestTransaction(t))
	require.Error(t, err)
	assert.Equal(t, types.KindSubmitFailed, types.KindOf(err))
	assert.True(t, types.KindOf(err).Retryable())
}

func TestSubmit_HungEndpointTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel the request context.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.requestTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := c.Submit(context.Background(), signedTestTransaction(t))
	require.Error(t, err)
	assert.Equal(t, types.KindSubmitFailed, types.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestConfirm_Confirmed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		assert.Equal(t, "getSignatureStatuses", req.Method)
		writeRPCResult(w, req.ID, statusesResult(map[string]interface{}{
			"slot":               100,
			"confirmations":      nil,
			"err":                nil,
			"confirmationStatus": "confirmed",
		}))
	}))
	defer server.Close()

	err := newTestClient(server.URL).Confirm(context.Background(), solana.Signature{}, Anchor{LastValidBlockHeight: 500})
	assert.NoError(t, err)
}

func TestConfirm_PendingThenConfirmed(t *testing.T) {
	var polls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		status := "processed"
		if polls.Add(1) > 1 {
			status = "confirmed"
		}
		writeRPCResult(w, req.ID, statusesResult(map[string]interface{}{
			"slot":               100,
			"confirmations":      1,
			"err":                nil,
			"confirmationStatus": status,
		}))
	}))
	defer server.Close()

	err := newTestClient(server.URL).Confirm(context.Background(), solana.Signature{}, Anchor{LastValidBlockHeight: 500})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, polls.Load(), int64(2))
}

func TestConfirm_OnChainErrorIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		writeRPCResult(w, req.ID, statusesResult(map[string]interface{}{
			"slot":               100,
			"confirmations":      nil,
			"err":                map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6001}}},
			"confirmationStatus": "confirmed",
		}))
	}))
	defer server.Close()

	err := newTestClient(server.URL).Confirm(context.Background(), solana.Signature{}, Anchor{LastValidBlockHeight: 500})
	require.Error(t, err)
	assert.Equal(t, types.KindExecutionFailed, types.KindOf(err))
	assert.True(t, types.KindOf(err).Retryable())
}

func TestConfirm_AnchorExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		switch req.Method {
		case "getSignatureStatuses":
			writeRPCResult(w, req.ID, statusesResult(nil))
		case "getBlockHeight":
			writeRPCResult(w, req.ID, 501)
		default:
			t.Errorf("unexpected method %s", req.Method)
		}
	}))
	defer server.Close()

	err := newTestClient(server.URL).Confirm(context.Background(), solana.Signature{}, Anchor{LastValidBlockHeight: 500})
	require.Error(t, err)
	assert.Equal(t, types.KindConfirmFailed, types.KindOf(err))
}

func TestConfirm_NotExpiredKeepsWaiting(t *testing.T) {
	var polls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		switch req.Method {
		case "getSignatureStatuses":
			if polls.Add(1) > 2 {
				writeRPCResult(w, req.ID, statusesResult(map[string]interface{}{
					"slot":               100,
					"confirmations":      nil,
					"err":                nil,
					"confirmationStatus": "finalized",
				}))
				return
			}
			writeRPCResult(w, req.ID, statusesResult(nil))
		case "getBlockHeight":
			writeRPCResult(w, req.ID, 400)
		}
	}))
	defer server.Close()

	err := newTestClient(server.URL).Confirm(context.Background(), solana.Signature{}, Anchor{LastValidBlockHeight: 500})
	assert.NoError(t, err)
}

func TestConfirm_UnreachableEndpointFinalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.requestTimeout = 10 * time.Millisecond

	err := c.Confirm(context.Background(), solana.Signature{}, Anchor{LastValidBlockHeight: 500})
	require.Error(t, err)
	assert.Equal(t, types.KindConfirmFailed, types.KindOf(err))
}

func TestConfirm_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		writeRPCResult(w, req.ID, statusesResult(nil))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestClient(server.URL).Confirm(ctx, solana.Signature{}, Anchor{LastValidBlockHeight: 500})
	assert.ErrorIs(t, err, context.Canceled)
}
