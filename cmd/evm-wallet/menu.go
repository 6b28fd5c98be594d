package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/model"
	"github.com/AlexZinkM/evm-wallet/wallet"
)

type menuCommand struct{}

func (c *menuCommand) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := wallet.Open(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	fmt.Printf("Connected to %s (chain %d)\n", rt.Endpoint, rt.ChainID)
	return runMenu(context.Background(), rt.Service, os.Stdin, os.Stdout)
}

// menu drives the interactive session over any reader and writer.
type menu struct {
	svc *wallet.Service
	in  *bufio.Scanner
	out io.Writer
}

// runMenu loops until the user exits or input ends. Failed actions are
// printed and the loop continues.
func runMenu(ctx context.Context, svc *wallet.Service, in io.Reader, out io.Writer) error {
	m := &menu{svc: svc, in: bufio.NewScanner(in), out: out}
	for {
		m.printOptions()
		choice, ok := m.prompt("Select an option: ")
		if !ok {
			return nil
		}
		switch choice {
		case "1":
			m.report(m.createWallet())
		case "2":
			m.report(m.viewWallet(ctx))
		case "3":
			m.report(m.transfer(ctx))
		case "4":
			m.listWallets(ctx)
		case "5":
			fmt.Fprintln(m.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid option. Please try again.")
		}
	}
}

func (m *menu) printOptions() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "=== Ethereum Wallet Operations ===")
	fmt.Fprintln(m.out, "1. Create New Wallet")
	fmt.Fprintln(m.out, "2. View Wallet Details")
	fmt.Fprintln(m.out, "3. Transfer ETH")
	fmt.Fprintln(m.out, "4. List All Wallets")
	fmt.Fprintln(m.out, "5. Exit")
}

func (m *menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *menu) promptIndex(label string) (int, error) {
	s, ok := m.prompt(label)
	if !ok {
		return 0, io.EOF
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%q is not a wallet index", s)
	}
	return i, nil
}

func (m *menu) report(err error) {
	if err != nil {
		fmt.Fprintln(m.out, "Error:", err)
	}
}

func (m *menu) createWallet() error {
	w, err := m.svc.CreateWallet()
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "\nWallet created successfully!")
	fmt.Fprintf(m.out, "Index:   %d\n", w.Index)
	fmt.Fprintf(m.out, "Address: %s\n", w.Address)
	if w.Funded != "" {
		fmt.Fprintf(m.out, "Funded:  %s ETH\n", w.Funded)
	}
	fmt.Fprintln(m.out, "Use View Wallet Details to reveal the private key and mnemonic.")
	return nil
}

func (m *menu) viewWallet(ctx context.Context) error {
	index, err := m.promptIndex("Enter wallet index: ")
	if err != nil {
		return err
	}
	bal, err := m.svc.Balance(ctx, index)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "\nWallet Details:")
	fmt.Fprintf(m.out, "Address: %s\n", bal.Address)
	fmt.Fprintf(m.out, "Balance: %s ETH\n", bal.ETH)
	if bal.Value != "" {
		fmt.Fprintf(m.out, "Value:   %s %s\n", bal.Value, strings.ToUpper(bal.Currency))
	}

	answer, ok := m.prompt("Reveal private key and mnemonic? (y/N): ")
	if !ok || !strings.EqualFold(answer, "y") {
		return nil
	}
	secret, err := m.svc.RevealSecret(index)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Private Key: %s\n", secret.PrivateKey)
	if secret.Mnemonic != "" {
		fmt.Fprintf(m.out, "Mnemonic:    %s\n", secret.Mnemonic)
		fmt.Fprintf(m.out, "Path:        %s\n", secret.DerivationPath)
	}
	return nil
}

func (m *menu) transfer(ctx context.Context) error {
	if m.svc.WalletCount() < 2 {
		return errors.New("you need at least 2 wallets to perform a transfer")
	}
	from, err := m.promptIndex("Enter sender wallet index: ")
	if err != nil {
		return err
	}
	to, ok := m.prompt("Enter receiver wallet index or 0x address: ")
	if !ok {
		return io.EOF
	}
	amount, ok := m.prompt("Enter amount in ETH: ")
	if !ok {
		return io.EOF
	}

	// Ctrl-C stops waiting without leaving the menu.
	waitCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(m.out, "Sending transaction...")
	if strings.HasPrefix(to, "0x") || strings.HasPrefix(to, "0X") {
		r, err := m.svc.Transfer(waitCtx, from, to, amount)
		return m.printTransfer(r, err)
	}
	toIndex, convErr := strconv.Atoi(to)
	if convErr != nil || toIndex < 0 {
		return fmt.Errorf("%q is not a wallet index or address", to)
	}
	r, err := m.svc.TransferBetween(waitCtx, from, toIndex, amount)
	return m.printTransfer(r, err)
}

func (m *menu) listWallets(ctx context.Context) {
	list := m.svc.ListWallets(ctx)
	if len(list.Wallets) == 0 {
		fmt.Fprintln(m.out, "No wallets created yet.")
		return
	}
	fmt.Fprintln(m.out, "\nAll Wallets:")
	for _, w := range list.Wallets {
		if w.BalanceError != "" {
			fmt.Fprintf(m.out, "%d. %s (balance unavailable: %s)\n", w.Index, w.Address, w.BalanceError)
			continue
		}
		fmt.Fprintf(m.out, "%d. %s (%s ETH)\n", w.Index, w.Address, w.ETH)
	}
}

// printTransfer shows whatever is known about a transfer and returns err.
func (m *menu) printTransfer(r *model.TransferResponse, err error) error {
	if r == nil {
		return err
	}
	if r.State == "confirmed" {
		fmt.Fprintln(m.out, "\nTransaction successful!")
	} else {
		fmt.Fprintf(m.out, "\nTransaction %s\n", r.State)
	}
	if r.TxHash != "" {
		fmt.Fprintf(m.out, "Transaction Hash: %s\n", r.TxHash)
	}
	fmt.Fprintf(m.out, "From:   %s\n", r.From)
	fmt.Fprintf(m.out, "To:     %s\n", r.To)
	fmt.Fprintf(m.out, "Amount: %s ETH\n", r.Amount)
	if r.BlockNumber != 0 {
		fmt.Fprintf(m.out, "Block:    %d\n", r.BlockNumber)
		fmt.Fprintf(m.out, "Gas used: %d\n", r.GasUsed)
		fmt.Fprintf(m.out, "Fee:      %s ETH\n", r.FeeETH)
	}
	if errors.Is(err, common.ErrTimedOut) || errors.Is(err, wallet.ErrNotAwaited) {
		fmt.Fprintln(m.out, "The transaction may still be included. Look it up later by its hash.")
	}
	return err
}
