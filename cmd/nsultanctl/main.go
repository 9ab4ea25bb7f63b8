// Command nsultanctl prints secrets for the service configuration and
// restores database backups.
//
//	nsultanctl hash-password <password>   bcrypt hash for admin.password_hash
//	nsultanctl vapid-keys                 key pair for push.vapid_*_key
//	nsultanctl restore <backup-id> <dst>  decrypt a backup into a new database file
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/johiruljahid/nsultan/internal/backup"
	"github.com/johiruljahid/nsultan/internal/config"
	"github.com/johiruljahid/nsultan/internal/database"
	"github.com/johiruljahid/nsultan/internal/logging"
	"github.com/johiruljahid/nsultan/internal/push"
	"github.com/johiruljahid/nsultan/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "hash-password":
		if len(os.Args) != 3 || os.Args[2] == "" {
			usage()
		}
		hash, err := store.HashPassword(os.Args[2])
		if err != nil {
			fail(err)
		}
		fmt.Println(hash)
	case "vapid-keys":
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			fail(err)
		}
		fmt.Printf("NSULTAN_VAPID_PUBLIC_KEY=%s\nNSULTAN_VAPID_PRIVATE_KEY=%s\n", pub, priv)
	case "restore":
		if len(os.Args) != 4 {
			usage()
		}
		id, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			usage()
		}
		if err := restore(id, os.Args[3]); err != nil {
			fail(err)
		}
		fmt.Printf("restored backup %d to %s\n", id, os.Args[3])
	default:
		usage()
	}
}

func restore(id int64, dst string) error {
	cfg, err := config.Load(os.Getenv("NSULTAN_CONFIG"))
	if err != nil {
		return err
	}
	if !cfg.BackupEnabled() {
		return errors.New("backups are not configured: set S3 storage and NSULTAN_BACKUP_PASSPHRASE")
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	mgr := backup.New(backup.Config{
		Endpoint:   cfg.S3.Endpoint,
		Bucket:     cfg.S3.Bucket,
		Region:     cfg.S3.Region,
		AccessKey:  cfg.S3.AccessKey,
		SecretKey:  cfg.S3.SecretKey,
		Prefix:     cfg.Backup.Prefix,
		Passphrase: cfg.Backup.Passphrase,
	}, db, store.NewBackupStore(db), nil, logger)
	return mgr.Restore(context.Background(), id, dst)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nsultanctl hash-password <password> | vapid-keys | restore <backup-id> <dst>")
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
