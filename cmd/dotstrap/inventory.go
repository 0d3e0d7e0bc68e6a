package main

import (
	"flag"
	"fmt"

	"github.com/vellumlabs/dotstrap/internal/config"
	"github.com/vellumlabs/dotstrap/internal/inventory"
)

func inventoryManager(path string, worldWritable bool) *inventory.Manager {
	if path == "" {
		path = config.DefaultInventoryPath
	}
	var opts []inventory.Option
	if worldWritable {
		opts = append(opts, inventory.WithWorldWritable())
	}
	return inventory.NewManager(path, opts...)
}

// runInventoryAdd handles `dotstrap inventory add <host>`.
func runInventoryAdd(args []string) error {
	fs := flag.NewFlagSet("inventory add", flag.ContinueOnError)
	path := fs.String("inventory", "", "inventory file (default: /etc/ansible/hosts)")
	group := fs.String("group", "", "group to declare the host under")
	connection := fs.String("connection", config.DefaultConnection, "ansible_connection value")
	worldWritable := fs.Bool("world-writable", false, "create the inventory world-writable (legacy 0777 mode)")
	if err := fs.Parse(args); err != nil {
		return nil
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dotstrap inventory add [options] <host>")
	}
	host := fs.Arg(0)

	inv := config.Inventory{Host: host, Connection: *connection, Group: *group}
	mgr := inventoryManager(*path, *worldWritable)

	if err := mgr.EnsureFile(); err != nil {
		return err
	}
	added, err := mgr.EnsureHost(inv.HostLine(), *group)
	if err != nil {
		return err
	}
	if added {
		fmt.Printf("✓ Declared %s in %s\n", host, mgr.Path())
	} else {
		fmt.Printf("✓ %s already declared in %s\n", host, mgr.Path())
	}
	return nil
}

// runInventoryList handles `dotstrap inventory list`.
func runInventoryList(args []string) error {
	fs := flag.NewFlagSet("inventory list", flag.ContinueOnError)
	path := fs.String("inventory", "", "inventory file (default: /etc/ansible/hosts)")
	if err := fs.Parse(args); err != nil {
		return nil
	}

	mgr := inventoryManager(*path, false)
	if !mgr.Exists() {
		fmt.Printf("Inventory %s does not exist\n", mgr.Path())
		return nil
	}

	entries, err := mgr.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("Inventory %s declares no hosts\n", mgr.Path())
		return nil
	}

	for _, e := range entries {
		if e.Group != "" {
			fmt.Printf("%s\t[%s]\n", e.Line, e.Group)
		} else {
			fmt.Println(e.Line)
		}
	}
	return nil
}

// runInventoryRemove handles `dotstrap inventory remove <host>`.
func runInventoryRemove(args []string) error {
	fs := flag.NewFlagSet("inventory remove", flag.ContinueOnError)
	path := fs.String("inventory", "", "inventory file (default: /etc/ansible/hosts)")
	if err := fs.Parse(args); err != nil {
		return nil
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dotstrap inventory remove [options] <host>")
	}
	host := fs.Arg(0)

	mgr := inventoryManager(*path, false)
	if err := mgr.RemoveHost(host); err != nil {
		return err
	}
	fmt.Printf("✓ Removed %s from %s\n", host, mgr.Path())
	return nil
}
