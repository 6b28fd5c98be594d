package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/AlexZinkM/evm-wallet/internal/model"
	"github.com/AlexZinkM/evm-wallet/wallet"
)

type lookupCommand struct {
	Args struct {
		Hash string `positional-arg-name:"hash" description:"0x-prefixed transaction hash"`
	} `positional-args:"yes" required:"yes"`
}

func (c *lookupCommand) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := wallet.Open(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	resp, err := rt.Service.Lookup(context.Background(), c.Args.Hash)
	if err != nil {
		return err
	}
	printLookup(os.Stdout, resp)
	return nil
}

func printLookup(w io.Writer, resp *model.LookupResponse) {
	fmt.Fprintf(w, "Transaction: %s\n", resp.TxHash)
	fmt.Fprintf(w, "State:       %s\n", resp.State)
	if resp.BlockNumber != 0 {
		fmt.Fprintf(w, "Block:       %d\n", resp.BlockNumber)
		fmt.Fprintf(w, "From:        %s\n", resp.From)
		fmt.Fprintf(w, "To:          %s\n", resp.To)
		if resp.Amount != "" {
			fmt.Fprintf(w, "Amount:      %s ETH\n", resp.Amount)
		}
		fmt.Fprintf(w, "Gas used:    %d\n", resp.GasUsed)
		fmt.Fprintf(w, "Fee:         %s ETH\n", resp.FeeETH)
	}
	if resp.Journal != nil {
		fmt.Fprintf(w, "Submitted:   %s (%s)\n", resp.Journal.CreatedAt.Format("2006-01-02 15:04:05"), resp.Journal.State)
	}
}
