package oui

// static covers virtualization platforms and the vendors most often seen on
// small office networks. Keys are the first three octets in upper-case hex.
var static = map[string]string{
	"005056": "VMware",
	"000C29": "VMware",
	"000569": "VMware",
	"001C42": "Parallels",
	"080027": "Oracle VirtualBox",
	"525400": "QEMU/KVM",
	"DCA632": "Raspberry Pi Foundation",
	"B827EB": "Raspberry Pi Foundation",
	"E45F01": "Raspberry Pi Trading",
	"00155D": "Microsoft Hyper-V",
	"002590": "Super Micro",
	"001B21": "Intel",
	"001AA0": "Dell",
	"D05099": "Micro-Star International (MSI)",
	"002324": "Freescale Semiconductor",
	"002219": "Cisco Systems",
	"000DB9": "D-Link",
	"00C0CA": "ALFA Network",
	"001F3C": "Hewlett Packard",
	"3CA9F4": "Hewlett Packard Enterprise",
	"0050B6": "Hon Hai Precision (Foxconn)",
	"001EC9": "BUFFALO.INC",
	"0024D7": "Cisco-Linksys",
	"00E04C": "Realtek",
	"7085C2": "Realtek",
	"AC220B": "Realtek",
	"00E04B": "Nokia",
	"38D547": "Nokia",
	"001B63": "Apple",
	"000393": "Apple",
	"000A27": "Apple",
	"000D93": "Apple",
	"001451": "Apple",
	"0016CB": "Apple",
	"0017F2": "Apple",
	"0019E3": "Apple",
	"001CB3": "Apple",
	"001D4F": "Apple",
	"001E52": "Apple",
	"001EC2": "Apple",
	"001F5B": "Apple",
	"001FF3": "Apple",
	"0021E9": "Apple",
	"002241": "Apple",
	"002312": "Apple",
	"002332": "Apple",
	"00236C": "Apple",
	"0023DF": "Apple",
	"002436": "Apple",
	"002500": "Apple",
	"00254B": "Apple",
	"0025BC": "Apple",
	"002608": "Apple",
	"00264A": "Apple",
	"0026B0": "Apple",
	"0026BB": "Apple",
	"040CCE": "Apple",
	"041552": "Apple",
	"042665": "Apple",
	"04489A": "Apple",
	"045453": "Apple",
	"086698": "Apple",
	"087045": "Apple",
	"0C3E9F": "Apple",
	"0C4DE9": "Apple",
	"0C74C2": "Apple",
	"1093E9": "Apple",
	"109ADD": "Apple",
	"10DDB1": "Apple",
	"14109F": "Apple",
	"148FC6": "Apple",
	"14BD61": "Apple",
	"183451": "Apple",
	"183DA2": "Apple",
	"18AF61": "Apple",
	"18E7F4": "Apple",
	"1CABA7": "Apple",
	"20C9D0": "Apple",
	"24A074": "Apple",
	"24AB81": "Apple",
	"283737": "Apple",
	"28CFE9": "Apple",
	"28E14C": "Apple",
	"2C1F23": "Apple",
	"2C3361": "Apple",
	"2CBE08": "Apple",
	"30636B": "Apple",
	"3090AB": "Apple",
	"30F7C5": "Apple",
	"34159E": "Apple",
	"34363B": "Apple",
	"3451C9": "Apple",
	"F0B0E7": "Google",
	"F4F5A5": "Google",
	"F4F5D8": "Google",
}
