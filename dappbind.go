// Package dappbind binds Ethereum contracts to callable methods at runtime
// from an ABI description, without generated code.
//
// A Binder takes a contract address and an ABI, in JSON, as a go-ethereum
// abi.ABI, or as human-readable signatures, and builds a table of methods
// keyed by name. Invoking a method encodes the arguments for their declared
// types, performs the call through a connection obtained from a
// ConnectionManager, and decodes the result into display values.
//
// # Basic Usage
//
//	conn := dappbind.NewConnectionManager(dappbind.WithRPCNode("https://bsc-testnet.example"))
//	binder := dappbind.NewBinder(conn)
//
//	token, err := binder.Contract(ctx, tokenAddr, []string{
//	    "function balanceOf(address owner) view returns (uint256)",
//	    "function name() view returns (string)",
//	}, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := token.Invoke(ctx, "balanceOf", holder)
//	if err != nil {
//	    log.Fatal(err) // the argument could not be encoded
//	}
//	if res.Failed() {
//	    fmt.Println(res.Reason) // revert reason or a generic message
//	} else {
//	    fmt.Println(res.Values[0]) // "12.5"
//	}
//
// # Type Coercion
//
// Coercion is chosen by the type family, the leading alphabetic part of the
// type tag:
//
//   - address: strings are validated and normalized to checksum form
//   - uint: decimal or hex strings and Go integers become arbitrary precision
//     integers; results are rendered as decimal strings scaled by 10^18
//   - bytes: strings become their UTF-8 bytes; results are decoded as UTF-8
//   - anything else passes through unchanged
//
// Numbers never pass through floating point.
//
// # Connections
//
// ConnectionManager keeps a single interactive connection. The first call to
// Connect selects a wallet through the configured WalletSelector and pins the
// chain; later calls reuse it. ReadOnly opens a fresh query-only connection
// every time.
//
// # Failures
//
// Encoding problems are returned as errors from the method call. A failed
// remote call is reported in Result.Reason instead, so callers always have
// something to display.
package dappbind
