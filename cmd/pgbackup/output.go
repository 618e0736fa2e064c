package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"pgbackup-go/internal/app"
	"pgbackup-go/internal/config"
	"pgbackup-go/internal/model"
	"pgbackup-go/internal/pgbackup"
)

func printReport(w io.Writer, report *app.RunReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Tier", "Action", "Artifact", "Expired"})
	for _, r := range report.Results {
		table.Append([]string{
			string(r.Identity.Tier),
			string(r.Action),
			r.Path,
			strconv.Itoa(len(r.Expired)),
		})
	}
	table.Render()

	for _, m := range report.Mirrored {
		fmt.Fprintf(w, "vault %s: %d uploaded, %d pruned, %d already present\n",
			m.Vault, len(m.Uploaded), len(m.Pruned), m.Present)
	}
	fmt.Fprintf(w, "Run %s for %s: %d artifact(s)\n", report.RunID, report.Today, len(report.Results))
}

func printEntries(w io.Writer, entries []*pgbackup.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Host", "Port", "Database", "Schema", "Date", "Tier", "Size", "Links"})
	for _, e := range entries {
		id := e.Identity
		table.Append([]string{
			id.Host,
			id.Port,
			id.Database,
			id.Schema,
			id.Date.String(),
			string(id.Tier),
			humanize.IBytes(uint64(e.Info.Size)),
			strconv.FormatUint(e.Info.Links, 10),
		})
	}
	table.Render()
}

func printIdentity(w io.Writer, id pgbackup.Identity) {
	fmt.Fprintf(w, "Directory: %s\n", id.Dir)
	fmt.Fprintf(w, "Host:      %s\n", id.Host)
	fmt.Fprintf(w, "Port:      %s\n", id.Port)
	fmt.Fprintf(w, "Database:  %s\n", id.Database)
	fmt.Fprintf(w, "Schema:    %s\n", id.Schema)
	fmt.Fprintf(w, "Date:      %s\n", id.Date)
	fmt.Fprintf(w, "Tier:      %s\n", id.Tier)
	fmt.Fprintf(w, "Suffix:    %s\n", id.Suffix)
}

func printRuns(w io.Writer, runs []*model.Run) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Date", "Started", "Status", "Duration", "Artifacts"})
	for _, r := range runs {
		duration := ""
		if r.FinishedAt.Valid {
			duration = r.FinishedAt.Time.Sub(r.StartedAt).Truncate(time.Millisecond).String()
		}
		table.Append([]string{
			strconv.FormatInt(r.ID, 10),
			r.Today,
			humanize.Time(r.StartedAt),
			r.Status,
			duration,
			strconv.Itoa(r.Artifacts),
		})
	}
	table.Render()
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Backup Dir:  %s\n", cfg.BackupDir)
	fmt.Fprintf(w, "Log Dir:     %s\n", cfg.LogDir)
	fmt.Fprintf(w, "Server:      %s:%s (user %s)\n", orDefault(cfg.Connection.Hostname, "local"), orDefault(cfg.Connection.Port, "default"), orDefault(cfg.Connection.Username, "default"))
	fmt.Fprintf(w, "Retention:   %d daily, %d weekly, %d monthly\n", cfg.Retention.DaysToKeep, cfg.Retention.WeeksToKeep, cfg.Retention.MonthsToKeep)
	fmt.Fprintf(w, "Journal:     %s\n", orDefault(cfg.Journal.Type, "none"))
	for _, v := range cfg.Vaults {
		fmt.Fprintf(w, "Vault:       %s (%s, encrypt=%t)\n", v.Name, v.Type, v.Encrypt)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
